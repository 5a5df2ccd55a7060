package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps agrupa lo que necesita el router de publicación.
type RouterDeps struct {
	ManifestDir string
	// Registry para /metrics; nil usa el registry global.
	Registry *prometheus.Registry
}

// NewRouter arma el router del servidor de publicación de manifests.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	metricsHandler, err := RegisterMetrics(deps.Registry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(WithRequestID, WithRecover, WithLogging, WithMetrics, WithSecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "no route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method)
	})

	ready := &readyHandler{Dir: deps.ManifestDir}
	r.Get("/readyz", ready.readyz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	(&manifestHandler{Dir: deps.ManifestDir}).Register(r)
	return r, nil
}
