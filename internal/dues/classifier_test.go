package dues

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

func openInvoice(id int64, balance string, due *time.Time) billing.Invoice {
	return billing.Invoice{
		ID:         id,
		Total:      money.MustParse(balance),
		BalanceDue: money.MustParse(balance),
		Status:     billing.InvoiceStatusOpen,
		DueDate:    due,
	}
}

func dateP(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestClassifyWindows(t *testing.T) {
	now := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	invoices := []billing.Invoice{
		openInvoice(1, "50.00", dateP(2024, 1, 8)),  // before today: overdue
		openInvoice(2, "30.00", dateP(2024, 1, 12)), // in 2 days: both windows
		openInvoice(3, "20.00", dateP(2024, 1, 16)), // in 6 days: 7-day only
	}

	b := Classify(invoices, now)

	require.Equal(t, 1, b.Overdue.Count)
	require.Equal(t, "50.00", b.Overdue.Total.String())

	require.Equal(t, 2, b.Pending.Count)
	require.Equal(t, "50.00", b.Pending.Total.String())

	require.Equal(t, 1, b.DueNext3.Count)
	require.Equal(t, "30.00", b.DueNext3.Total.String())

	// The 3-day window is a subset of the 7-day window.
	require.Equal(t, 2, b.DueNext7.Count)
	require.Equal(t, "50.00", b.DueNext7.Total.String())
}

func TestClassifyNoDueDateIsPendingOnly(t *testing.T) {
	now := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	b := Classify([]billing.Invoice{openInvoice(1, "40.00", nil)}, now)

	require.Equal(t, 1, b.Pending.Count)
	require.Zero(t, b.Overdue.Count)
	require.Zero(t, b.DueNext3.Count)
	require.Zero(t, b.DueNext7.Count)
}

func TestClassifySkipsSettledInvoices(t *testing.T) {
	now := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	paid := openInvoice(1, "100.00", dateP(2024, 1, 8))
	paid.BalanceDue = money.Zero

	b := Classify([]billing.Invoice{paid}, now)
	require.Zero(t, b.Overdue.Count)
	require.Zero(t, b.Pending.Count)
}

func TestClassifyDueTodayIsNotOverdue(t *testing.T) {
	// Overdue means strictly before the start of today; anything due later
	// today is still pending and inside both windows.
	now := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	b := Classify([]billing.Invoice{openInvoice(1, "10.00", dateP(2024, 1, 10))}, now)

	require.Zero(t, b.Overdue.Count)
	require.Equal(t, 1, b.Pending.Count)
	// Midnight today is before now itself, so the windows measured from now
	// exclude it.
	require.Zero(t, b.DueNext3.Count)
	require.Zero(t, b.DueNext7.Count)
}

func TestClassifyWindowBoundaries(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	// Exactly 3 days out sits in both windows.
	b := Classify([]billing.Invoice{openInvoice(1, "10.00", dateP(2024, 1, 13))}, now)
	require.Equal(t, 1, b.DueNext3.Count)
	require.Equal(t, 1, b.DueNext7.Count)

	// Exactly 7 days out sits in the 7-day window only.
	b = Classify([]billing.Invoice{openInvoice(1, "10.00", dateP(2024, 1, 17))}, now)
	require.Zero(t, b.DueNext3.Count)
	require.Equal(t, 1, b.DueNext7.Count)

	// One day past the 7-day window is pending only.
	b = Classify([]billing.Invoice{openInvoice(1, "10.00", dateP(2024, 1, 18))}, now)
	require.Equal(t, 1, b.Pending.Count)
	require.Zero(t, b.DueNext7.Count)
}

func TestClassifyEmptyInput(t *testing.T) {
	b := Classify(nil, time.Now())
	require.Zero(t, b.Pending.Count)
	require.True(t, b.Pending.Total.IsZero())
}

type stubInvoiceSource struct {
	invoices []billing.Invoice
	err      error
	calls    int
}

func (s *stubInvoiceSource) ListOpenInvoices(ctx context.Context, buildingID string) ([]billing.Invoice, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if buildingID == "" {
		return s.invoices, nil
	}
	var out []billing.Invoice
	for _, inv := range s.invoices {
		if inv.BuildingID == buildingID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func newDuesService(t *testing.T, source InvoiceSource) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(source, client, time.Minute, nil)
	svc.clock = func() time.Time { return time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC) }
	return svc, client
}

func TestWarmDigestAndCachedSummary(t *testing.T) {
	ctx := context.Background()
	source := &stubInvoiceSource{invoices: []billing.Invoice{
		openInvoice(1, "50.00", dateP(2024, 1, 8)),
		openInvoice(2, "30.00", dateP(2024, 1, 12)),
	}}
	svc, client := newDuesService(t, source)

	require.NoError(t, svc.WarmDigest(ctx, shared.ScopeGlobal))
	require.Equal(t, 1, source.calls)

	exists, err := client.Exists(ctx, shared.DuesDigestKey(shared.ScopeGlobal)).Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, exists)

	// A warm digest serves the read without touching the source again.
	buckets, err := svc.CachedSummary(ctx, shared.ScopeGlobal)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
	require.Equal(t, 1, buckets.Overdue.Count)
	require.Equal(t, "50.00", buckets.Overdue.Total.String())
	require.Equal(t, 1, buckets.Pending.Count)
}

func TestCachedSummaryFallsBackOnMiss(t *testing.T) {
	ctx := context.Background()
	source := &stubInvoiceSource{invoices: []billing.Invoice{
		openInvoice(1, "20.00", nil),
	}}
	svc, _ := newDuesService(t, source)

	buckets, err := svc.CachedSummary(ctx, shared.ScopeGlobal)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
	require.Equal(t, 1, buckets.Pending.Count)
}

func TestSummaryScopedToBuilding(t *testing.T) {
	ctx := context.Background()
	inv1 := openInvoice(1, "50.00", dateP(2024, 1, 8))
	inv1.BuildingID = "bld-1"
	inv2 := openInvoice(2, "70.00", dateP(2024, 1, 8))
	inv2.BuildingID = "bld-2"
	source := &stubInvoiceSource{invoices: []billing.Invoice{inv1, inv2}}
	svc, _ := newDuesService(t, source)

	// A building-scoped read must never count the other building's dues.
	buckets, err := svc.CachedSummary(ctx, "bld-1")
	require.NoError(t, err)
	require.Equal(t, 1, buckets.Overdue.Count)
	require.Equal(t, "50.00", buckets.Overdue.Total.String())

	buckets, err = svc.CachedSummary(ctx, shared.ScopeGlobal)
	require.NoError(t, err)
	require.Equal(t, 2, buckets.Overdue.Count)
	require.Equal(t, "120.00", buckets.Overdue.Total.String())
}

func TestWarmDigestKeyedPerBuilding(t *testing.T) {
	ctx := context.Background()
	inv1 := openInvoice(1, "50.00", dateP(2024, 1, 8))
	inv1.BuildingID = "bld-1"
	inv2 := openInvoice(2, "70.00", dateP(2024, 1, 8))
	inv2.BuildingID = "bld-2"
	source := &stubInvoiceSource{invoices: []billing.Invoice{inv1, inv2}}
	svc, client := newDuesService(t, source)

	require.NoError(t, svc.WarmDigest(ctx, "bld-1"))
	calls := source.calls

	// The warmed building digest serves scoped data without a recompute.
	buckets, err := svc.CachedSummary(ctx, "bld-1")
	require.NoError(t, err)
	require.Equal(t, calls, source.calls)
	require.Equal(t, 1, buckets.Overdue.Count)
	require.Equal(t, "50.00", buckets.Overdue.Total.String())

	// The global key stays cold: the other scope's warmup must not leak
	// into it.
	exists, err := client.Exists(ctx, shared.DuesDigestKey(shared.ScopeGlobal)).Result()
	require.NoError(t, err)
	require.EqualValues(t, 0, exists)
}

func TestCachedSummaryFallsBackOnCorruptDigest(t *testing.T) {
	ctx := context.Background()
	source := &stubInvoiceSource{invoices: []billing.Invoice{
		openInvoice(1, "20.00", nil),
	}}
	svc, client := newDuesService(t, source)

	require.NoError(t, client.Set(ctx, shared.DuesDigestKey(shared.ScopeGlobal), "not json", time.Minute).Err())

	buckets, err := svc.CachedSummary(ctx, shared.ScopeGlobal)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
	require.Equal(t, 1, buckets.Pending.Count)
}
