package manifest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/peermanifest/internal/fetch"
	"github.com/dropDatabas3/peermanifest/internal/metrics"
	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
)

// Orígenes para logs y métricas.
const (
	SourceHTTPS = "https"
	SourceFile  = "file"
)

// FromHTTPS obtiene <basePath>/<peerName>/specific-manifest.json por HTTPS
// (el esquema se fuerza) y lo decodifica. Si f es nil se usa un fetcher por
// defecto con timeout de 30s. No hay reintentos ni cache: cada llamada vuelve
// a pedir el documento.
func FromHTTPS(ctx context.Context, f fetch.Fetcher, basePath, peerName string) (*SpecificManifest, error) {
	m, _, err := FetchHTTPS(ctx, f, basePath, peerName)
	return m, err
}

// FetchHTTPS es FromHTTPS pero además retorna el documento crudo, ya validado.
// Lo usan las capas que cachean bytes (peers.Directory).
func FetchHTTPS(ctx context.Context, f fetch.Fetcher, basePath, peerName string) (*SpecificManifest, []byte, error) {
	started := time.Now()
	log := logger.FromWithFields(ctx, logger.Component("manifest"), logger.Source(SourceHTTPS), logger.Peer(peerName))

	u, err := fetch.ManifestURL(basePath, peerName)
	if err != nil {
		merr := newError(KindAddress, "", err, "failed to build manifest address for peer %q", peerName)
		observe(SourceHTTPS, merr, started)
		log.Warn("manifest address rejected", logger.Err(merr))
		return nil, nil, merr
	}
	if f == nil {
		f = fetch.NewHTTPFetcher(30*time.Second, "")
	}

	body, err := f.Fetch(ctx, u)
	if err != nil {
		merr := newError(KindRetrieval, "", err, "failed to fetch specific manifest")
		observe(SourceHTTPS, merr, started)
		log.Warn("manifest fetch failed", logger.URL(u.Redacted()), logger.Err(merr))
		return nil, nil, merr
	}

	m, err := FromBytes(body)
	observe(SourceHTTPS, err, started)
	if err != nil {
		rejected(log, err, logger.URL(u.Redacted()))
		return nil, nil, err
	}
	log.Debug("manifest loaded",
		logger.URL(u.Redacted()),
		logger.Bytes(len(body)),
		logger.Count(len(m.BatchSigningPublicKeys)),
		logger.Duration(time.Since(started)),
	)
	return m, body, nil
}

// FromFile lee y decodifica un manifest local.
func FromFile(path string) (*SpecificManifest, error) {
	started := time.Now()
	log := logger.Named("manifest").With(logger.Source(SourceFile), logger.File(path))

	body, err := fetch.ReadFile(path)
	if err != nil {
		merr := newError(KindRetrieval, "", err, "failed to open manifest file")
		observe(SourceFile, merr, started)
		log.Warn("manifest read failed", logger.Err(merr))
		return nil, merr
	}

	m, err := FromBytes(body)
	observe(SourceFile, err, started)
	if err != nil {
		rejected(log, err)
		return nil, err
	}
	log.Debug("manifest loaded", logger.Bytes(len(body)), logger.Count(len(m.BatchSigningPublicKeys)))
	return m, nil
}

// rejected loguea un documento descartado por FromBytes.
func rejected(log *zap.Logger, err error, fields ...zap.Field) {
	var merr *Error
	if errors.As(err, &merr) && merr.Kind == KindUnsupportedFormat {
		fields = append(fields, logger.Format(merr.Format))
	}
	log.Warn("manifest rejected", append(fields, logger.Err(err))...)
}

func observe(source string, err error, started time.Time) {
	result := metrics.ResultOK
	if err != nil {
		var merr *Error
		if errors.As(err, &merr) {
			result = string(merr.Kind)
		} else {
			result = metrics.ResultError
		}
	}
	metrics.ObserveLoad(source, result, started)
}
