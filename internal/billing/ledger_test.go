package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

func testInvoice(total, balance string) Invoice {
	return Invoice{
		ID:         1,
		Number:     "INV-2024-0001",
		Total:      money.MustParse(total),
		BalanceDue: money.MustParse(balance),
		Status:     InvoiceStatusOpen,
	}
}

func TestApplyPaymentSequence(t *testing.T) {
	inv := testInvoice("1000.00", "1000.00")

	inv, err := ApplyPayment(inv, money.MustParse("400.00"))
	require.NoError(t, err)
	require.Equal(t, "600.00", inv.BalanceDue.String())
	require.Equal(t, "400.00", inv.PaidAmount().String())
	require.Equal(t, InvoiceStatusPartial, inv.DeriveStatus(time.Now()))

	inv, err = ApplyPayment(inv, money.MustParse("600.00"))
	require.NoError(t, err)
	require.True(t, inv.BalanceDue.IsZero())
	require.Equal(t, InvoiceStatusPaid, inv.DeriveStatus(time.Now()))

	// A paid invoice accepts nothing further.
	_, err = ApplyPayment(inv, money.MustParse("0.01"))
	require.ErrorIs(t, err, shared.ErrExceedsBalance)
}

func TestApplyPaymentRejectsNonPositive(t *testing.T) {
	inv := testInvoice("100.00", "100.00")

	_, err := ApplyPayment(inv, money.Zero)
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = ApplyPayment(inv, money.MustParse("-5.00"))
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	// Failed applies leave the input untouched.
	require.Equal(t, "100.00", inv.BalanceDue.String())
}

func TestApplyPaymentNeverOverdraws(t *testing.T) {
	inv := testInvoice("100.00", "30.00")

	_, err := ApplyPayment(inv, money.MustParse("30.01"))
	require.ErrorIs(t, err, shared.ErrExceedsBalance)

	inv, err = ApplyPayment(inv, money.MustParse("30.00"))
	require.NoError(t, err)
	require.True(t, inv.BalanceDue.IsZero())
}

func TestReversePaymentClampsAtTotal(t *testing.T) {
	inv := testInvoice("100.00", "80.00")

	inv = ReversePayment(inv, money.MustParse("10.00"))
	require.Equal(t, "90.00", inv.BalanceDue.String())

	// Reversing a historically-invalid amount clamps at the total.
	inv = ReversePayment(inv, money.MustParse("50.00"))
	require.Equal(t, "100.00", inv.BalanceDue.String())
}

func TestApplyReverseRoundTrip(t *testing.T) {
	inv := testInvoice("250.00", "250.00")
	amount := money.MustParse("99.99")

	applied, err := ApplyPayment(inv, amount)
	require.NoError(t, err)
	reversed := ReversePayment(applied, amount)
	require.True(t, reversed.BalanceDue.Equal(inv.BalanceDue))
}

func TestBalanceInvariantUnderSequences(t *testing.T) {
	// 0 <= balance <= total must hold after every operation.
	inv := testInvoice("500.00", "500.00")
	amounts := []string{"120.00", "0.01", "379.99"}

	check := func() {
		require.False(t, inv.BalanceDue.IsNegative())
		require.False(t, inv.BalanceDue.GreaterThan(inv.Total))
	}

	for _, a := range amounts {
		var err error
		inv, err = ApplyPayment(inv, money.MustParse(a))
		require.NoError(t, err)
		check()
	}
	require.True(t, inv.BalanceDue.IsZero())

	for _, a := range amounts {
		inv = ReversePayment(inv, money.MustParse(a))
		check()
	}
	require.Equal(t, "500.00", inv.BalanceDue.String())
}

func TestEditCap(t *testing.T) {
	inv := testInvoice("1000.00", "600.00")
	original := money.MustParse("400.00")

	// Same invoice gets the prior contribution back as headroom.
	cap := EditCap(inv, original, true)
	require.Equal(t, "1000.00", cap.String())

	// An unchanged amount always fits under the same-invoice cap.
	require.NoError(t, validateAgainstCap(original, cap))

	// Retarget gets the raw balance only.
	retargetCap := EditCap(inv, original, false)
	require.Equal(t, "600.00", retargetCap.String())
	require.ErrorIs(t, validateAgainstCap(money.MustParse("600.01"), retargetCap), shared.ErrExceedsBalance)
}

func TestEditCapOnPaidInvoice(t *testing.T) {
	// Editing a payment on a fully-paid invoice can go up to its own prior
	// amount and no further.
	inv := testInvoice("300.00", "0.00")
	original := money.MustParse("300.00")

	cap := EditCap(inv, original, true)
	require.Equal(t, "300.00", cap.String())
	require.NoError(t, validateAgainstCap(original, cap))
	require.ErrorIs(t, validateAgainstCap(money.MustParse("300.01"), cap), shared.ErrExceedsBalance)

	// Retargeting onto a paid invoice has zero headroom.
	require.True(t, EditCap(inv, original, false).IsZero())
}

func TestRemainingAfter(t *testing.T) {
	cap := money.MustParse("100.00")

	require.Equal(t, "40.00", RemainingAfter(cap, money.MustParse("60.00")).String())
	require.True(t, RemainingAfter(cap, cap).IsZero())
	// Overshoot floors at zero rather than going negative.
	require.True(t, RemainingAfter(cap, money.MustParse("150.00")).IsZero())
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	past := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	inv := testInvoice("100.00", "100.00")
	require.Equal(t, InvoiceStatusOpen, inv.DeriveStatus(now))

	inv.DueDate = &future
	require.Equal(t, InvoiceStatusOpen, inv.DeriveStatus(now))

	inv.DueDate = &past
	require.Equal(t, InvoiceStatusOverdue, inv.DeriveStatus(now))

	inv.BalanceDue = money.MustParse("40.00")
	inv.DueDate = &future
	require.Equal(t, InvoiceStatusPartial, inv.DeriveStatus(now))

	// Overdue wins over partial.
	inv.DueDate = &past
	require.Equal(t, InvoiceStatusOverdue, inv.DeriveStatus(now))

	inv.BalanceDue = money.Zero
	require.Equal(t, InvoiceStatusPaid, inv.DeriveStatus(now))

	// Draft and void stick regardless of balance or due date.
	inv.Status = InvoiceStatusDraft
	inv.BalanceDue = money.MustParse("100.00")
	require.Equal(t, InvoiceStatusDraft, inv.DeriveStatus(now))
	inv.Status = InvoiceStatusVoid
	require.Equal(t, InvoiceStatusVoid, inv.DeriveStatus(now))
}
