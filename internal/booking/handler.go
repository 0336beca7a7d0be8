package booking

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lodgekeep/lodgekeep/internal/platform/httpx"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Handler manages booking endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbacMW,
		validate: validator.New(),
	}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ModuleBookings, shared.ActionView, nil))
		r.Get("/", h.listBookings)
		r.Get("/{id}", h.getBooking)
	})

	// The service re-checks edit capability against the booking's own
	// building scope; the route-level gate only filters obvious denials.
	r.Post("/{id}/transition", h.transition)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending reserved confirmed canceled checked_out"`
}

type transitionResponse struct {
	Booking     Booking  `json:"booking"`
	BedAffected int64    `json:"bed_affected,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Transition(r.Context(), id, Status(req.Status))
	if err != nil {
		h.logger.Error("booking transition", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, transitionResponse{
		Booking:     result.Booking,
		BedAffected: result.BedAffected,
		Warnings:    result.Warnings,
	})
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	bk, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		h.logger.Error("get booking", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bk)
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	req := ListBookingsRequest{
		Status:     Status(r.URL.Query().Get("status")),
		BuildingID: r.URL.Query().Get("building_id"),
		Limit:      100,
	}

	bookings, err := h.service.ListBookings(r.Context(), req)
	if err != nil {
		h.logger.Error("list bookings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}
