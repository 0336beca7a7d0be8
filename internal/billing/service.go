package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// RepositoryPort defines data access methods for invoices and primary
// payments. Implementations must make WithTx atomic: either every mutation
// inside fn lands, or none do.
type RepositoryPort interface {
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	// UpdateInvoiceBalance persists the balance only when the stored version
	// still matches; a stale version returns shared.ErrConflict.
	UpdateInvoiceBalance(ctx context.Context, id int64, balance money.Amount, version int64) error
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	// ListOpenInvoices returns invoices still carrying a balance, optionally
	// restricted to one building. An empty buildingID means all buildings.
	ListOpenInvoices(ctx context.Context, buildingID string) ([]Invoice, error)

	GetPayment(ctx context.Context, id string) (*Payment, error)
	InsertPayment(ctx context.Context, p Payment) error
	UpdatePayment(ctx context.Context, p Payment) error
	DeletePayment(ctx context.Context, id string) error

	WithTx(ctx context.Context, fn func(ctx context.Context, repo RepositoryPort) error) error
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	Status     InvoiceStatus
	TenantID   int64
	BuildingID string
	Limit      int
	Offset     int
}

// Service handles invoice ledger business logic.
type Service struct {
	repo   RepositoryPort
	gate   rbac.Gate
	locker *Locker
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, gate rbac.Gate, locker *Locker, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		locker: locker,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// CreatePaymentInput describes a new payment.
type CreatePaymentInput struct {
	InvoiceID  int64 // zero for standalone payments
	BookingID  int64
	BuildingID string
	Amount     money.Amount
	Method     string
	ReceivedAt time.Time
}

// CreatePayment records a payment and, when attached to an invoice, applies
// it to the balance atomically. The capability check runs before any lock or
// write.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	if !s.gate.Can(ctx, shared.ModulePayments, shared.ActionAdd, s.scope(input.BuildingID)) {
		return nil, fmt.Errorf("%w: payments add", shared.ErrPermissionDenied)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", shared.ErrInvalidAmount, input.Amount)
	}

	now := s.clock()
	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}
	payment := Payment{
		ID:         uuid.NewString(),
		InvoiceID:  input.InvoiceID,
		BookingID:  input.BookingID,
		BuildingID: input.BuildingID,
		Amount:     input.Amount,
		Method:     input.Method,
		ReceivedAt: receivedAt,
		Source:     SourcePrimary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if input.InvoiceID == 0 {
		if err := s.repo.InsertPayment(ctx, payment); err != nil {
			return nil, err
		}
		return &payment, nil
	}

	release, err := s.locker.Acquire(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo RepositoryPort) error {
		inv, err := repo.GetInvoice(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		updated, err := ApplyPayment(*inv, input.Amount)
		if err != nil {
			return err
		}
		if err := repo.UpdateInvoiceBalance(ctx, inv.ID, updated.BalanceDue, inv.Version); err != nil {
			return err
		}
		return repo.InsertPayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// EditPaymentInput describes an in-place payment amendment. InvoiceID may
// retarget the payment to a different invoice.
type EditPaymentInput struct {
	PaymentID  string
	InvoiceID  int64
	Amount     money.Amount
	Method     string
	ReceivedAt time.Time
}

// EditPayment reverses the old amount, re-validates the new one against the
// edit cap, and applies it, all in one transaction. Editing without changing
// the amount always validates on the same invoice because the payment's own
// contribution counts as headroom.
func (s *Service) EditPayment(ctx context.Context, input EditPaymentInput) (*Payment, error) {
	existing, err := s.repo.GetPayment(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if !s.gate.Can(ctx, shared.ModulePayments, shared.ActionEdit, s.scope(existing.BuildingID)) {
		return nil, fmt.Errorf("%w: payments edit", shared.ErrPermissionDenied)
	}

	targetID := input.InvoiceID
	if targetID == 0 {
		targetID = existing.InvoiceID
	}

	lockID := targetID
	if lockID == 0 {
		lockID = existing.InvoiceID
	}
	var release = func() {}
	if lockID != 0 {
		release, err = s.locker.Acquire(ctx, lockID)
		if err != nil {
			return nil, err
		}
	}
	defer release()

	updated := *existing
	updated.InvoiceID = targetID
	updated.Amount = input.Amount
	if input.Method != "" {
		updated.Method = input.Method
	}
	if !input.ReceivedAt.IsZero() {
		updated.ReceivedAt = input.ReceivedAt
	}
	updated.UpdatedAt = s.clock()

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo RepositoryPort) error {
		// Release the old contribution first so the cap sees the headroom.
		if existing.InvoiceID != 0 {
			old, err := repo.GetInvoice(ctx, existing.InvoiceID)
			if err != nil {
				return err
			}
			reversed := ReversePayment(*old, existing.Amount)
			if err := repo.UpdateInvoiceBalance(ctx, old.ID, reversed.BalanceDue, old.Version); err != nil {
				return err
			}
		}

		if targetID != 0 {
			target, err := repo.GetInvoice(ctx, targetID)
			if err != nil {
				return err
			}
			// After the reversal above, the same-invoice balance already
			// carries the original amount back, so the raw balance is the
			// effective edit cap in both the same-invoice and retarget case.
			if err := validateAgainstCap(input.Amount, target.BalanceDue); err != nil {
				return err
			}
			applied, err := ApplyPayment(*target, input.Amount)
			if err != nil {
				return err
			}
			if err := repo.UpdateInvoiceBalance(ctx, target.ID, applied.BalanceDue, target.Version); err != nil {
				return err
			}
		} else if !input.Amount.IsPositive() {
			return fmt.Errorf("%w: got %s", shared.ErrInvalidAmount, input.Amount)
		}

		return repo.UpdatePayment(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePayment removes a payment and credits its amount back to the
// invoice, clamped at the invoice total.
func (s *Service) DeletePayment(ctx context.Context, paymentID string) error {
	existing, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !s.gate.Can(ctx, shared.ModulePayments, shared.ActionDelete, s.scope(existing.BuildingID)) {
		return fmt.Errorf("%w: payments delete", shared.ErrPermissionDenied)
	}

	var release = func() {}
	if existing.InvoiceID != 0 {
		release, err = s.locker.Acquire(ctx, existing.InvoiceID)
		if err != nil {
			return err
		}
	}
	defer release()

	return s.repo.WithTx(ctx, func(ctx context.Context, repo RepositoryPort) error {
		if existing.InvoiceID != 0 {
			inv, err := repo.GetInvoice(ctx, existing.InvoiceID)
			if err != nil {
				return err
			}
			reversed := ReversePayment(*inv, existing.Amount)
			if err := repo.UpdateInvoiceBalance(ctx, inv.ID, reversed.BalanceDue, inv.Version); err != nil {
				return err
			}
		}
		return repo.DeletePayment(ctx, paymentID)
	})
}

// EditPreview reports the effective cap and the balance remaining after the
// entered amount, for form feedback while a payment edit is in progress.
type EditPreview struct {
	Cap            money.Amount
	RemainingAfter money.Amount
	WithinCap      bool
}

// PreviewEdit computes edit headroom without mutating anything.
func (s *Service) PreviewEdit(ctx context.Context, paymentID string, targetInvoiceID int64, entered money.Amount) (*EditPreview, error) {
	existing, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if targetInvoiceID == 0 {
		targetInvoiceID = existing.InvoiceID
	}
	if targetInvoiceID == 0 {
		return &EditPreview{Cap: entered, RemainingAfter: money.Zero, WithinCap: entered.IsPositive()}, nil
	}
	inv, err := s.repo.GetInvoice(ctx, targetInvoiceID)
	if err != nil {
		return nil, err
	}
	cap := EditCap(*inv, existing.Amount, targetInvoiceID == existing.InvoiceID)
	return &EditPreview{
		Cap:            cap,
		RemainingAfter: RemainingAfter(cap, entered),
		WithinCap:      entered.IsPositive() && !entered.GreaterThan(cap),
	}, nil
}

// GetInvoice returns an invoice with its derived status.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = inv.DeriveStatus(s.clock())
	return inv, nil
}

// ListInvoices returns invoices matching the filter, statuses derived.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	invoices, err := s.repo.ListInvoices(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	for i := range invoices {
		invoices[i].Status = invoices[i].DeriveStatus(now)
	}
	return invoices, nil
}

// ListOpenInvoices returns invoices with a positive balance, for the dues
// dashboard.
func (s *Service) ListOpenInvoices(ctx context.Context, buildingID string) ([]Invoice, error) {
	return s.repo.ListOpenInvoices(ctx, buildingID)
}

func (s *Service) scope(buildingID string) string {
	if buildingID == "" {
		return shared.ScopeGlobal
	}
	return buildingID
}
