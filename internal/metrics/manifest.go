// Package metrics define las métricas Prometheus de carga de manifests y
// resolución de claves. Vive en un paquete propio para que manifest, peers y
// http las compartan sin ciclos de import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados posibles en los labels "result".
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

var (
	ManifestLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manifest_loads_total",
		Help: "Cargas de specific manifests por origen y resultado (kind del error o ok)",
	}, []string{"source", "result"})

	ManifestLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "manifest_load_duration_seconds",
		Help:    "Latencia de obtener y decodificar un manifest",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	KeyResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_key_resolutions_total",
		Help: "Resoluciones de batch signing keys por resultado",
	}, []string{"result"})

	PeerCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peer_cache_lookups_total",
		Help: "Lookups de manifests crudos en el cache del directorio de peers",
	}, []string{"result"})
)

// ObserveLoad registra una carga de manifest.
func ObserveLoad(source, result string, started time.Time) {
	ManifestLoads.WithLabelValues(source, result).Inc()
	ManifestLoadDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}

// Register registra las métricas en reg (o el default si es nil).
// Tolera AlreadyRegisteredError para poder llamarse más de una vez.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{ManifestLoads, ManifestLoadDuration, KeyResolutions, PeerCacheLookups} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
