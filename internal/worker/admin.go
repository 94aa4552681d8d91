package worker

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the worker's /healthz check and its metrics registry.
func AdminHandler(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics)
	return r
}
