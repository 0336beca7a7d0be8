package billing

import (
	"time"

	"github.com/lodgekeep/lodgekeep/internal/money"
)

// InvoiceStatus enumerates invoice statuses. Draft and void are assigned by
// the external billing process and pass through unchanged; the remaining
// values are derived from the balance and due date, never stored as truth.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusOpen    InvoiceStatus = "open"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

// Invoice model. Total is immutable once issued; BalanceDue is the only
// field this subsystem mutates. Version supports optimistic concurrency on
// balance writes.
type Invoice struct {
	ID         int64
	Number     string
	TenantID   int64
	BuildingID string
	Total      money.Amount
	BalanceDue money.Amount
	Status     InvoiceStatus
	DueDate    *time.Time
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PaidAmount returns total minus balance.
func (inv Invoice) PaidAmount() money.Amount {
	return inv.Total.Sub(inv.BalanceDue)
}

// DeriveStatus computes the display status as of now. Draft and void stick.
func (inv Invoice) DeriveStatus(now time.Time) InvoiceStatus {
	if inv.Status == InvoiceStatusDraft || inv.Status == InvoiceStatusVoid {
		return inv.Status
	}
	if inv.BalanceDue.IsZero() {
		return InvoiceStatusPaid
	}
	if inv.DueDate != nil && inv.DueDate.Before(now) {
		return InvoiceStatusOverdue
	}
	if inv.PaidAmount().IsPositive() {
		return InvoiceStatusPartial
	}
	return InvoiceStatusOpen
}

// PaymentSource tags which repository produced a payment record.
type PaymentSource string

const (
	SourcePrimary PaymentSource = "primary"
	SourceLegacy  PaymentSource = "legacy"
)

// Payment is the canonical payment shape both sources converge on.
// InvoiceID is zero for standalone payments.
type Payment struct {
	ID         string
	InvoiceID  int64
	BookingID  int64
	BuildingID string
	Amount     money.Amount
	Method     string
	ReceivedAt time.Time
	Source     PaymentSource
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
