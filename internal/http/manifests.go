package http

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/peermanifest/internal/fetch"
	"github.com/dropDatabas3/peermanifest/internal/manifest"
	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
	"github.com/dropDatabas3/peermanifest/internal/publish"
)

// manifestHandler publica los specific manifests guardados en Dir/<peer>/.
// Sólo se sirve un documento si carga limpio: un peer nunca recibe un
// manifest que su propio loader rechazaría.
type manifestHandler struct {
	Dir string
}

func (h *manifestHandler) Register(r chi.Router) {
	r.Get("/{peer}/"+fetch.ManifestFileName, h.get)
	r.Head("/{peer}/"+fetch.ManifestFileName, h.get)
}

// GET /{peer}/specific-manifest.json
func (h *manifestHandler) get(w http.ResponseWriter, r *http.Request) {
	peer := chi.URLParam(r, "peer")
	log := logger.From(r.Context()).With(logger.Component("publish"), logger.Peer(peer))

	path, err := publish.Path(h.Dir, peer)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "unknown peer")
		return
	}

	m, err := manifest.FromFile(path)
	switch {
	case err == nil:
	case manifest.IsKind(err, manifest.KindRetrieval):
		WriteError(w, http.StatusNotFound, "not_found", "unknown peer")
		return
	default:
		log.Error("refusing to publish invalid manifest", logger.File(path), logger.Err(err))
		WriteError(w, http.StatusUnprocessableEntity, "invalid_manifest", string(manifest.KindOf(err)))
		return
	}

	// Se sirve la forma canónica: el documento publicado es lo que el loader entendió.
	body, err := m.Marshal()
	if err != nil {
		log.Error("marshal manifest", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "marshal manifest")
		return
	}

	etag := ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=60")
	if IfNoneMatch(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// readyHandler responde 200 mientras el directorio de manifests sea legible.
type readyHandler struct {
	Dir string
}

// GET /readyz
func (h *readyHandler) readyz(w http.ResponseWriter, r *http.Request) {
	st, err := os.Stat(h.Dir)
	if err != nil || !st.IsDir() {
		WriteError(w, http.StatusServiceUnavailable, "not_ready", "manifest directory unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
