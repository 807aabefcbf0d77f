package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"namedex/internal/rebuild"
	"namedex/internal/resolver"
	"namedex/pkg/platform/httputil"
	auth "namedex/pkg/platform/middleware/auth"
	"namedex/pkg/platform/sentinel"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler is the thin HTTP layer over resolution and rebuilds.
type Handler struct {
	resolvers *resolver.Factory
	rebuilds  *rebuild.Service
	health    map[string]HealthChecker
	logger    *slog.Logger
}

// NewHandler constructs the HTTP handler. health maps dependency names to
// their checkers; nil checkers are allowed and skipped.
func NewHandler(resolvers *resolver.Factory, rebuilds *rebuild.Service, health map[string]HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{
		resolvers: resolvers,
		rebuilds:  rebuilds,
		health:    health,
		logger:    logger,
	}
}

type personResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	GivenName       string `json:"given_name,omitempty"`
	FamilyName      string `json:"family_name,omitempty"`
	HonorificPrefix string `json:"honorific_prefix,omitempty"`
}

// HandleResolve handles GET /v1/resolve?name=..&date=YYYY-MM-DD&party=..
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.URL.Query().Get("name")
	if name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "date is required")
		return
	}
	asOf, err := time.ParseInLocation(time.DateOnly, dateParam, time.UTC)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
		return
	}
	party := r.URL.Query().Get("party")

	res, err := h.resolvers.ForDate(asOf)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build resolver", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	person, err := res.Resolve(ctx, name, party)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			httputil.WriteError(w, http.StatusNotFound, "not_found", "no person matched")
		case errors.Is(err, sentinel.ErrUnavailable):
			h.logger.ErrorContext(ctx, "resolution backend unavailable", "name", name, "error", err)
			httputil.WriteError(w, http.StatusServiceUnavailable, "unavailable", "index backend unavailable, retry later")
		default:
			h.logger.ErrorContext(ctx, "resolution failed", "name", name, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, personResponse{
		ID:              person.ID.String(),
		Name:            person.Name,
		GivenName:       person.GivenName,
		FamilyName:      person.FamilyName,
		HonorificPrefix: person.HonorificPrefix,
	})
}

// HandleRebuild handles POST /admin/rebuild. The pass runs synchronously;
// re-running it is always safe.
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.rebuilds.Rebuild(ctx)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			httputil.WriteError(w, http.StatusConflict, "conflict", "a rebuild is already running")
		case errors.Is(err, sentinel.ErrUnavailable):
			h.logger.ErrorContext(ctx, "rebuild backend unavailable", "error", err)
			httputil.WriteError(w, http.StatusServiceUnavailable, "unavailable", "backend unavailable, retry later")
		default:
			h.logger.ErrorContext(ctx, "rebuild failed", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	h.logger.InfoContext(ctx, "rebuild triggered via admin endpoint",
		"subject", auth.Subject(ctx),
		"people", stats.People,
		"variants", stats.Variants,
	)
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for name, checker := range h.health {
		if checker == nil {
			continue
		}
		if err := checker.Health(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			httputil.WriteError(w, http.StatusServiceUnavailable, "unavailable", name+" unreachable")
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
