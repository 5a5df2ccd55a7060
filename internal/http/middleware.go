package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
)

// ─────────────── Request ID ───────────────

// WithRequestID propaga X-Request-ID (o genera uno) y deja en el contexto
// un logger con ese id.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := logger.ToContext(r.Context(), logger.L().With(logger.RequestID(rid)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ─────────────── Recover de pánicos ───────────────
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Op("recover"),
					logger.Any("panic", rec),
				)
				WriteError(w, http.StatusInternalServerError, "internal_error", "panic recover")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ─────────────── Logging ───────────────
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		// health checks son muy frecuentes
		if r.URL.Path == "/readyz" {
			return
		}
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logger.From(r.Context()).Info("http",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(status),
			logger.Bytes(rec.bytes),
			logger.Duration(time.Since(start)),
		)
	})
}

// ─────────────── Headers ───────────────

// WithSecurityHeaders agrega cabeceras mínimas para una API que sólo sirve JSON.
func WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			w.Header().Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
