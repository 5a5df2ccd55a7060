// Package peers agrega un directorio de peers sobre el loader de manifests:
// cache opcional de documentos validados y refresco concurrente de varios peers.
package peers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/peermanifest/internal/cache"
	"github.com/dropDatabas3/peermanifest/internal/fetch"
	"github.com/dropDatabas3/peermanifest/internal/manifest"
	"github.com/dropDatabas3/peermanifest/internal/metrics"
	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
	"github.com/dropDatabas3/peermanifest/internal/signature"
)

// DefaultTTL aplica cuando Directory.TTL es 0.
const DefaultTTL = 5 * time.Minute

// DefaultFetchTimeout aplica cuando Directory.FetchTimeout es 0.
const DefaultFetchTimeout = 30 * time.Second

// Directory resuelve manifests por nombre de peer contra BaseURL.
//
// Sólo se cachean bytes que ya pasaron la validación; cada llamada a Manifest
// decodifica un record nuevo, así que los callers nunca comparten un record.
// Cache nil desactiva el cache. Cargas concurrentes del mismo peer comparten
// un único fetch; cada caller deja de esperarlo cuando vence su propio ctx. No copiar un Directory después de usarlo.
type Directory struct {
	BaseURL string
	Fetcher fetch.Fetcher
	Cache   cache.Client
	TTL     time.Duration

	// FetchTimeout acota un fetch compartido; 0 usa DefaultFetchTimeout.
	FetchTimeout time.Duration

	sf singleflight.Group
}

func cacheKey(peer string) string { return "manifest:" + peer }

// Manifest retorna el specific manifest de peer.
func (d *Directory) Manifest(ctx context.Context, peer string) (*manifest.SpecificManifest, error) {
	log := logger.FromWithFields(ctx, logger.Component("peers"), logger.Peer(peer))

	if d.Cache != nil {
		raw, err := d.Cache.Get(ctx, cacheKey(peer))
		switch {
		case err == nil:
			m, derr := manifest.FromBytes(raw)
			if derr == nil {
				metrics.PeerCacheLookups.WithLabelValues(metrics.ResultHit).Inc()
				return m, nil
			}
			// Entrada corrupta (p.ej. escrita por otra versión): se descarta.
			log.Warn("discarding cached manifest", logger.Err(derr))
			_ = d.Cache.Delete(ctx, cacheKey(peer))
		case !cache.IsNotFound(err):
			// Un cache caído no debe impedir la carga.
			log.Warn("manifest cache lookup failed", logger.Err(err))
		}
		metrics.PeerCacheLookups.WithLabelValues(metrics.ResultMiss).Inc()
	}

	ch := d.sf.DoChan(peer, func() (interface{}, error) {
		// El fetch es compartido: no depende de la cancelación del caller
		// que lo inició, sólo de FetchTimeout.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.fetchTimeout())
		defer cancel()
		_, raw, err := manifest.FetchHTTPS(fctx, d.Fetcher, d.BaseURL, peer)
		if err != nil {
			return nil, err
		}
		if d.Cache != nil {
			if err := d.Cache.Set(fctx, cacheKey(peer), raw, d.ttl()); err != nil {
				log.Warn("manifest cache store failed", logger.Err(err))
			}
		}
		return raw, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("manifest for peer %q: %w", peer, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		log.Debug("manifest fetch shared with concurrent caller")
	}
	// Cada caller decodifica su propio record a partir de bytes ya validados.
	return manifest.FromBytes(res.Val.([]byte))
}

// BatchSigningKey carga el manifest de peer y resuelve keyID.
func (d *Directory) BatchSigningKey(ctx context.Context, peer, keyID string) (*signature.Verifier, error) {
	m, err := d.Manifest(ctx, peer)
	if err != nil {
		return nil, err
	}
	return m.BatchSigningPublicKey(keyID)
}

// Refresh descarta lo cacheado y vuelve a cargar todos los peers en paralelo.
// El primer error cancela el resto y se retorna envuelto con el peer.
func (d *Directory) Refresh(ctx context.Context, peers []string) (map[string]*manifest.SpecificManifest, error) {
	results := make([]*manifest.SpecificManifest, len(peers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			if err := d.Invalidate(gctx, peer); err != nil {
				return fmt.Errorf("peer %q: %w", peer, err)
			}
			m, err := d.Manifest(gctx, peer)
			if err != nil {
				return fmt.Errorf("peer %q: %w", peer, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*manifest.SpecificManifest, len(peers))
	for i, peer := range peers {
		out[peer] = results[i]
	}
	return out, nil
}

// Invalidate borra el documento cacheado de peer, si lo hay.
func (d *Directory) Invalidate(ctx context.Context, peer string) error {
	if d.Cache == nil {
		return nil
	}
	if err := d.Cache.Delete(ctx, cacheKey(peer)); err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return nil
}

func (d *Directory) ttl() time.Duration {
	if d.TTL > 0 {
		return d.TTL
	}
	return DefaultTTL
}

func (d *Directory) fetchTimeout() time.Duration {
	if d.FetchTimeout > 0 {
		return d.FetchTimeout
	}
	return DefaultFetchTimeout
}
