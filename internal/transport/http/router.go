package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "namedex/pkg/platform/middleware/auth"
)

// NewRouter wires all endpoints. Resolution is public read-only; the rebuild
// trigger sits behind admin auth because it drops and regenerates the whole
// index.
func NewRouter(h *Handler, jwtSigningKey string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/v1/resolve", h.HandleResolve)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(jwtSigningKey, logger))
		r.Post("/admin/rebuild", h.HandleRebuild)
	})

	return r
}
