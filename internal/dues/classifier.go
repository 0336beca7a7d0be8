// Package dues buckets open invoices by due-date proximity for the
// dashboard. Classification is pure: it never reads the system clock and is
// recomputed from the invoice set on every query.
package dues

import (
	"time"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/money"
)

// Bucket holds a count and summed balance for one classification.
type Bucket struct {
	Count int          `json:"count"`
	Total money.Amount `json:"total"`
}

func (b *Bucket) add(amount money.Amount) {
	b.Count++
	b.Total = b.Total.Add(amount)
}

// Buckets is the dues summary. Pending and Overdue are mutually exclusive;
// DueNext3 and DueNext7 overlap (an invoice due in 2 days sits in both) and
// are subsets of Pending.
type Buckets struct {
	Pending  Bucket `json:"pending"`
	Overdue  Bucket `json:"overdue"`
	DueNext3 Bucket `json:"due_next_3"`
	DueNext7 Bucket `json:"due_next_7"`
}

// Classify buckets every invoice carrying a balance. Invoices without a due
// date land in pending only; anything due before the start of now's day is
// overdue; the rest is pending, plus the 3- and 7-day windows measured from
// now itself.
func Classify(invoices []billing.Invoice, now time.Time) Buckets {
	var out Buckets
	dayStart := startOfDay(now)
	in3 := now.AddDate(0, 0, 3)
	in7 := now.AddDate(0, 0, 7)

	for _, inv := range invoices {
		if !inv.BalanceDue.IsPositive() {
			continue
		}
		if inv.DueDate == nil {
			out.Pending.add(inv.BalanceDue)
			continue
		}
		due := *inv.DueDate
		if due.Before(dayStart) {
			out.Overdue.add(inv.BalanceDue)
			continue
		}
		out.Pending.add(inv.BalanceDue)
		if !due.Before(now) && !due.After(in3) {
			out.DueNext3.add(inv.BalanceDue)
		}
		if !due.Before(now) && !due.After(in7) {
			out.DueNext7.add(inv.BalanceDue)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
