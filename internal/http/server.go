package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
)

// TLSFiles son los PEM de certificado y clave del servidor. Vacío = HTTP plano.
type TLSFiles struct {
	CertFile string
	KeyFile  string
}

func (t TLSFiles) enabled() bool { return t.CertFile != "" || t.KeyFile != "" }

// Serve atiende en addr hasta que ctx se cancela y luego hace shutdown ordenado.
// Con tls.CertFile/KeyFile sirve HTTPS directamente; sin ellos sirve HTTP plano,
// que los fetchers (https-only) sólo alcanzan detrás de un proxy que termine TLS.
func Serve(ctx context.Context, addr string, handler http.Handler, tls TLSFiles) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, handler, tls)
}

func serve(ctx context.Context, ln net.Listener, handler http.Handler, tls TLSFiles) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("manifest server listening",
			logger.String("addr", ln.Addr().String()), logger.Bool("tls", tls.enabled()))
		if tls.enabled() {
			errCh <- srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
