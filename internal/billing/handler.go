package billing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/platform/httpx"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Handler manages invoice and payment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	format   *money.Formatter
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware, format *money.Formatter) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbacMW,
		format:   format,
		validate: validator.New(),
	}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ModuleInvoices, shared.ActionView, nil))
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{id}", h.getInvoice)
	})

	// Payment mutations re-check capability in the service against the
	// payment's own building scope.
	r.Post("/payments", h.createPayment)
	r.Put("/payments/{id}", h.editPayment)
	r.Delete("/payments/{id}", h.deletePayment)
	r.Get("/payments/{id}/edit-preview", h.previewEdit)
}

type paymentRequest struct {
	InvoiceID  int64  `json:"invoice_id"`
	BookingID  int64  `json:"booking_id"`
	BuildingID string `json:"building_id"`
	Amount     string `json:"amount" validate:"required"`
	Method     string `json:"method" validate:"required"`
	ReceivedAt string `json:"received_at"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "invalid amount")
		return
	}
	receivedAt, _ := time.Parse("2006-01-02", req.ReceivedAt)

	payment, err := h.service.CreatePayment(r.Context(), CreatePaymentInput{
		InvoiceID:  req.InvoiceID,
		BookingID:  req.BookingID,
		BuildingID: req.BuildingID,
		Amount:     amount,
		Method:     req.Method,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		h.logger.Error("create payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) editPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")

	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "invalid amount")
		return
	}
	receivedAt, _ := time.Parse("2006-01-02", req.ReceivedAt)

	payment, err := h.service.EditPayment(r.Context(), EditPaymentInput{
		PaymentID:  paymentID,
		InvoiceID:  req.InvoiceID,
		Amount:     amount,
		Method:     req.Method,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		h.logger.Error("edit payment", slog.Any("error", err), slog.String("payment_id", paymentID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")

	if err := h.service.DeletePayment(r.Context(), paymentID); err != nil {
		h.logger.Error("delete payment", slog.Any("error", err), slog.String("payment_id", paymentID))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) previewEdit(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	targetID, _ := strconv.ParseInt(r.URL.Query().Get("invoice_id"), 10, 64)

	entered, err := money.Parse(r.URL.Query().Get("amount"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid amount")
		return
	}

	preview, err := h.service.PreviewEdit(r.Context(), paymentID, targetID, entered)
	if err != nil {
		h.logger.Error("preview payment edit", slog.Any("error", err), slog.String("payment_id", paymentID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"cap":               preview.Cap,
		"remaining_after":   preview.RemainingAfter,
		"remaining_display": h.format.Format(preview.RemainingAfter),
		"within_cap":        preview.WithinCap,
	})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.logger.Error("get invoice", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoice":         inv,
		"total_display":   h.format.Format(inv.Total),
		"balance_display": h.format.Format(inv.BalanceDue),
	})
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := strconv.ParseInt(r.URL.Query().Get("tenant_id"), 10, 64)
	req := ListInvoicesRequest{
		Status:     InvoiceStatus(r.URL.Query().Get("status")),
		TenantID:   tenantID,
		BuildingID: r.URL.Query().Get("building_id"),
		Limit:      100,
	}

	invoices, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}
