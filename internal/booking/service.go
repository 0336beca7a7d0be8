package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lodgekeep/lodgekeep/internal/catalog"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// RepositoryPort defines data access methods for bookings.
type RepositoryPort interface {
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Booking, error)
	ListBookings(ctx context.Context, req ListBookingsRequest) ([]Booking, error)
}

// ListBookingsRequest filters booking listings.
type ListBookingsRequest struct {
	Status     Status
	BuildingID string
	Limit      int
	Offset     int
}

// Service applies booking status transitions.
type Service struct {
	repo    RepositoryPort
	catalog catalog.Lookup
	gate    rbac.Gate
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, lookup catalog.Lookup, gate rbac.Gate, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: lookup, gate: gate, logger: logger}
}

// Transition moves a booking to newStatus. The capability check runs before
// any validation or mutation; a denial leaves the booking untouched. Bed
// availability is the caller's responsibility: the result carries the
// affected bed id as an advisory signal so the room catalog can recompute
// without this package depending on it.
func (s *Service) Transition(ctx context.Context, bookingID int64, newStatus Status) (*TransitionResult, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidTransition, newStatus)
	}

	bk, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	scope := bk.BuildingID
	if scope == "" {
		scope, err = s.catalog.BuildingForBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
	}
	if !s.gate.Can(ctx, shared.ModuleBookings, shared.ActionEdit, scope) {
		return nil, fmt.Errorf("%w: bookings edit in scope %s", shared.ErrPermissionDenied, scope)
	}

	if !CanTransition(bk.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, bk.Status, newStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, bookingID, newStatus)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Booking: *updated, BedAffected: updated.BedID}

	// Bed-assigned bookings are auto-promoted by the billing service, so a
	// manual demotion is inconsistent but not this subsystem's call to block.
	if updated.BedID != 0 && (newStatus == StatusPending || newStatus == StatusReserved) {
		warning := fmt.Sprintf("booking %d moved to %s while bed %d is still assigned", bookingID, newStatus, updated.BedID)
		result.Warnings = append(result.Warnings, warning)
		if s.logger != nil {
			s.logger.Warn("inconsistent booking demotion",
				slog.Int64("booking_id", bookingID),
				slog.Int64("bed_id", updated.BedID),
				slog.String("status", string(newStatus)))
		}
	}

	return result, nil
}

// GetBooking returns a single booking.
func (s *Service) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ListBookings returns bookings matching the filter.
func (s *Service) ListBookings(ctx context.Context, req ListBookingsRequest) ([]Booking, error) {
	return s.repo.ListBookings(ctx, req)
}
