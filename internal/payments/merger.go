// Package payments merges payment records from the primary ledger and the
// legacy booking-embedded store into one display list. The merge is a
// heuristic, display-oriented operation: it favors a simple unified list
// over perfect identity, and the primary ledger always wins on conflict.
package payments

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/money"
)

// Filter narrows source fetches. Zero values mean no restriction.
type Filter struct {
	BookingID  int64
	BuildingID string
	From       time.Time
	To         time.Time
}

// PrimarySource reads from the authoritative payment ledger.
type PrimarySource interface {
	FetchPayments(ctx context.Context, f Filter) ([]billing.Payment, error)
}

// LegacyRecord is the shape of a payment embedded in an old booking row:
// keyed by booking rather than invoice, with a paid-on date instead of a
// received-at timestamp.
type LegacyRecord struct {
	BookingID  int64
	BuildingID string
	Amount     money.Amount
	Mode       string
	PaidOn     time.Time
}

// LegacySource reads the not-yet-migrated booking-embedded records.
type LegacySource interface {
	FetchLegacyPayments(ctx context.Context, f Filter) ([]LegacyRecord, error)
}

// MergeResult is the unified payment list plus degradation flags. Partial is
// set when exactly one source failed; its error is kept for logging, and
// callers should warn that totals may be incomplete.
type MergeResult struct {
	Payments   []billing.Payment
	Partial    bool
	PrimaryErr error
	LegacyErr  error
}

// Merger fetches both sources concurrently and reconciles them.
type Merger struct {
	primary PrimarySource
	legacy  LegacySource
	logger  *slog.Logger
}

// NewMerger builds a Merger instance.
func NewMerger(primary PrimarySource, legacy LegacySource, logger *slog.Logger) *Merger {
	return &Merger{primary: primary, legacy: legacy, logger: logger}
}

// Merge returns the unified list. Both fetches run concurrently and must
// both settle before any merge logic touches the results. One failed source
// degrades the result; both failing is an error.
func (m *Merger) Merge(ctx context.Context, f Filter) (*MergeResult, error) {
	var (
		primaryList []billing.Payment
		legacyList  []LegacyRecord
		primaryErr  error
		legacyErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		primaryList, primaryErr = m.primary.FetchPayments(gctx, f)
		return nil
	})
	g.Go(func() error {
		legacyList, legacyErr = m.legacy.FetchLegacyPayments(gctx, f)
		return nil
	})
	_ = g.Wait()

	if primaryErr != nil && legacyErr != nil {
		return nil, fmt.Errorf("payments: both sources failed: primary: %w; legacy: %v", primaryErr, legacyErr)
	}

	result := &MergeResult{
		Partial:    primaryErr != nil || legacyErr != nil,
		PrimaryErr: primaryErr,
		LegacyErr:  legacyErr,
	}
	if result.Partial && m.logger != nil {
		m.logger.Warn("payment source degraded",
			slog.Any("primary_error", primaryErr),
			slog.Any("legacy_error", legacyErr))
	}

	result.Payments = merge(primaryList, legacyList)
	return result, nil
}

// merge is the pure reconciliation step, separated from the fetching so it
// can be tested without sources.
func merge(primaryList []billing.Payment, legacyList []LegacyRecord) []billing.Payment {
	seen := make(map[string]struct{}, len(primaryList))
	byID := make(map[string]struct{}, len(primaryList)+len(legacyList))
	out := make([]billing.Payment, 0, len(primaryList)+len(legacyList))

	for _, p := range primaryList {
		p.Source = billing.SourcePrimary
		idKey := string(p.Source) + ":" + p.ID
		if _, dup := byID[idKey]; dup {
			// Overlapping pages from the same source.
			continue
		}
		byID[idKey] = struct{}{}
		seen[fingerprint(p.Amount, p.ReceivedAt, p.BuildingID, p.BookingID)] = struct{}{}
		out = append(out, p)
	}

	for i, rec := range legacyList {
		p := normalizeLegacy(rec, i)
		if _, dup := seen[fingerprint(p.Amount, p.ReceivedAt, p.BuildingID, p.BookingID)]; dup {
			// Already migrated into the primary ledger; primary wins.
			continue
		}
		idKey := string(p.Source) + ":" + p.ID
		if _, dup := byID[idKey]; dup {
			continue
		}
		byID[idKey] = struct{}{}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out
}

// normalizeLegacy converts a booking-embedded record into the canonical
// payment shape. This is the only place legacy field names are interpreted.
func normalizeLegacy(rec LegacyRecord, ordinal int) billing.Payment {
	return billing.Payment{
		ID:         fmt.Sprintf("legacy-%d-%d", rec.BookingID, ordinal),
		BookingID:  rec.BookingID,
		BuildingID: rec.BuildingID,
		Amount:     rec.Amount,
		Method:     rec.Mode,
		ReceivedAt: rec.PaidOn,
		Source:     billing.SourceLegacy,
	}
}

// fingerprint derives the dedup key: amount banker-rounded to 2 decimals,
// date truncated to the UTC day, building and booking identifiers. Two
// distinct payments sharing all four fields will collapse; that imprecision
// is accepted because legacy volume is low and primary is authoritative.
func fingerprint(amount money.Amount, at time.Time, buildingID string, bookingID int64) string {
	day := at.UTC().Truncate(24 * time.Hour)
	h, _ := blake2b.New256(nil)
	h.Write([]byte(amount.Round2().String()))
	h.Write([]byte{0})
	h.Write([]byte(day.Format("2006-01-02")))
	h.Write([]byte{0})
	h.Write([]byte(buildingID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(bookingID, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
