package api

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/apachedragonfly/ekg-wave/internal/metrics"
)

// NewRouter arma las rutas. hub puede ser nil (sin /ws) y webDir vacío o
// inexistente omite los estáticos.
func NewRouter(h *Handlers, hub *Hub, m *metrics.Metrics, webDir string) *mux.Router {
	r := mux.NewRouter()

	route := func(path string, fn http.HandlerFunc) {
		r.Handle(path, m.WrapHandler(path, fn)).Methods(http.MethodGet)
	}
	route("/health", h.Health)
	route("/api/waveform", h.Waveform)
	route("/api/profile", h.Profile)
	route("/api/rhythms", h.Rhythms)
	route("/api/leads", h.Leads)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	if hub != nil {
		r.HandleFunc("/ws", hub.ServeWS).Methods(http.MethodGet)
	}
	if webDir != "" {
		if st, err := os.Stat(webDir); err == nil && st.IsDir() {
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(webDir)))
		}
	}
	return r
}
