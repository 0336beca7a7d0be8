package billing

import (
	"fmt"

	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// ApplyPayment decrements the invoice balance by amount. The amount must be
// positive and must not exceed the current balance; the balance can never go
// negative through this path.
func ApplyPayment(inv Invoice, amount money.Amount) (Invoice, error) {
	if !amount.IsPositive() {
		return inv, fmt.Errorf("%w: got %s", shared.ErrInvalidAmount, amount)
	}
	if amount.GreaterThan(inv.BalanceDue) {
		return inv, fmt.Errorf("%w: %s > %s", shared.ErrExceedsBalance, amount, inv.BalanceDue)
	}
	inv.BalanceDue = inv.BalanceDue.Sub(amount)
	return inv, nil
}

// ReversePayment increments the balance by amount, clamped at the invoice
// total. The clamp keeps a reversal of a historically-invalid amount from
// pushing the balance above what was ever owed.
func ReversePayment(inv Invoice, amount money.Amount) Invoice {
	inv.BalanceDue = money.Min(inv.Total, inv.BalanceDue.Add(amount))
	return inv
}

// EditCap returns the maximum amount acceptable when editing an existing
// payment. When the payment stays on the same invoice its prior contribution
// is added back first, so an edit that keeps the amount unchanged always
// validates. Retargeting a different invoice gets no headroom.
func EditCap(inv Invoice, originalAmount money.Amount, sameInvoice bool) money.Amount {
	if sameInvoice {
		return inv.BalanceDue.Add(originalAmount)
	}
	return inv.BalanceDue
}

// RemainingAfter is max(0, cap - entered). Exposed for form feedback only;
// it is never the validation gate itself.
func RemainingAfter(cap, entered money.Amount) money.Amount {
	return money.Max(money.Zero, cap.Sub(entered))
}

// validateAgainstCap enforces the hard boundary: amounts past the cap are
// rejected, never clamped. The interactive edit path may offer a clamp to
// the user, but nothing beyond the cap is ever accepted for submission.
func validateAgainstCap(amount, cap money.Amount) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", shared.ErrInvalidAmount, amount)
	}
	if amount.GreaterThan(cap) {
		return fmt.Errorf("%w: %s > %s", shared.ErrExceedsBalance, amount, cap)
	}
	return nil
}
