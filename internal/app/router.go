package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/booking"
	"github.com/lodgekeep/lodgekeep/internal/dues"
	"github.com/lodgekeep/lodgekeep/internal/payments"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	BookingHandler  *booking.Handler
	BillingHandler  *billing.Handler
	PaymentsHandler *payments.Handler
	DuesHandler     *dues.Handler
}

// NewRouter constructs the chi.Router with Lodgekeep defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bookings", params.BookingHandler.MountRoutes)
		r.Route("/billing", params.BillingHandler.MountRoutes)
		r.Route("/payments", params.PaymentsHandler.MountRoutes)
		r.Route("/dues", params.DuesHandler.MountRoutes)
	})

	return r
}
