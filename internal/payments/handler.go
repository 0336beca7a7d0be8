package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodgekeep/lodgekeep/internal/platform/httpx"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Handler serves the unified payment history.
type Handler struct {
	logger *slog.Logger
	merger *Merger
	rbac   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, merger *Merger, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, merger: merger, rbac: rbacMW}
}

// MountRoutes registers payment history routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ModulePayments, shared.ActionView, nil))
		r.Get("/history", h.history)
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	bookingID, _ := strconv.ParseInt(r.URL.Query().Get("booking_id"), 10, 64)
	from, _ := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	to, _ := time.Parse("2006-01-02", r.URL.Query().Get("to"))

	result, err := h.merger.Merge(r.Context(), Filter{
		BookingID:  bookingID,
		BuildingID: r.URL.Query().Get("building_id"),
		From:       from,
		To:         to,
	})
	if err != nil {
		h.logger.Error("merge payment history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"payments": result.Payments,
		// Partial means one source failed and totals may be incomplete.
		"partial": result.Partial,
	})
}
