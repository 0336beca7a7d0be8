package dues

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/platform/httpx"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// DigestWarmer schedules an asynchronous digest recomputation for one scope.
// Satisfied by the jobs client; nil disables the refresh endpoint.
type DigestWarmer interface {
	WarmAsync(ctx context.Context, scope string) error
}

// Handler serves the dues dashboard summary.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	format  *money.Formatter
	warmer  DigestWarmer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware, format *money.Formatter, warmer DigestWarmer) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, format: format, warmer: warmer}
}

// MountRoutes registers dues routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ModuleDues, shared.ActionView, nil))
		r.Get("/summary", h.summary)
		r.Post("/summary/refresh", h.refresh)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("building_id")
	if scope == "" {
		scope = shared.ScopeGlobal
	}

	buckets, err := h.service.CachedSummary(r.Context(), scope)
	if err != nil {
		h.logger.Error("dues summary", slog.Any("error", err), slog.String("scope", scope))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"scope":   scope,
		"summary": buckets,
		"display": map[string]string{
			"pending":    h.format.Format(buckets.Pending.Total),
			"overdue":    h.format.Format(buckets.Overdue.Total),
			"due_next_3": h.format.Format(buckets.DueNext3.Total),
			"due_next_7": h.format.Format(buckets.DueNext7.Total),
		},
	})
}

// refresh enqueues a digest warmup instead of recomputing inline, so a
// dashboard refresh button cannot stampede the invoice table.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if h.warmer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "background warmup is not configured")
		return
	}

	scope := r.URL.Query().Get("building_id")
	if scope == "" {
		scope = shared.ScopeGlobal
	}

	if err := h.warmer.WarmAsync(r.Context(), scope); err != nil {
		h.logger.Error("enqueue dues warmup", slog.Any("error", err), slog.String("scope", scope))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"scope": scope})
}
