package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/money"
)

// PrimaryRepository reads the primary payment ledger.
type PrimaryRepository struct {
	pool *pgxpool.Pool
}

// NewPrimaryRepository constructs the primary source.
func NewPrimaryRepository(pool *pgxpool.Pool) *PrimaryRepository {
	return &PrimaryRepository{pool: pool}
}

var _ PrimarySource = (*PrimaryRepository)(nil)

// FetchPayments returns ledger payments matching the filter.
func (r *PrimaryRepository) FetchPayments(ctx context.Context, f Filter) ([]billing.Payment, error) {
	query := `
		SELECT id, COALESCE(invoice_id, 0), COALESCE(booking_id, 0),
			COALESCE(building_id::text, ''), amount, method, received_at,
			created_at, updated_at
		FROM payments
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if f.BookingID != 0 {
		query += fmt.Sprintf(" AND booking_id = $%d", argNum)
		args = append(args, f.BookingID)
		argNum++
	}
	if f.BuildingID != "" {
		query += fmt.Sprintf(" AND building_id::text = $%d", argNum)
		args = append(args, f.BuildingID)
		argNum++
	}
	if !f.From.IsZero() {
		query += fmt.Sprintf(" AND received_at >= $%d", argNum)
		args = append(args, f.From)
		argNum++
	}
	if !f.To.IsZero() {
		query += fmt.Sprintf(" AND received_at <= $%d", argNum)
		args = append(args, f.To)
	}

	query += " ORDER BY received_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []billing.Payment
	for rows.Next() {
		var p billing.Payment
		err := rows.Scan(
			&p.ID, &p.InvoiceID, &p.BookingID, &p.BuildingID,
			&p.Amount, &p.Method, &p.ReceivedAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		p.Source = billing.SourcePrimary
		out = append(out, p)
	}
	return out, rows.Err()
}

// LegacyRepository reads payment records still embedded in booking rows as
// jsonb, the pre-migration store.
type LegacyRepository struct {
	pool *pgxpool.Pool
}

// NewLegacyRepository constructs the legacy source.
func NewLegacyRepository(pool *pgxpool.Pool) *LegacyRepository {
	return &LegacyRepository{pool: pool}
}

var _ LegacySource = (*LegacyRepository)(nil)

// legacyEntry mirrors the jsonb shape written by the old front end.
type legacyEntry struct {
	Amount float64 `json:"amount"`
	Mode   string  `json:"mode"`
	PaidOn string  `json:"paid_on"`
}

// FetchLegacyPayments flattens each booking's embedded history into records.
func (r *LegacyRepository) FetchLegacyPayments(ctx context.Context, f Filter) ([]LegacyRecord, error) {
	query := `
		SELECT b.id, COALESCE(bld.id::text, ''), b.payment_history
		FROM bookings b
		LEFT JOIN beds bd ON bd.id = b.bed_id
		LEFT JOIN rooms rm ON rm.id = bd.room_id
		LEFT JOIN buildings bld ON bld.id = rm.building_id
		WHERE b.payment_history IS NOT NULL AND b.payment_history <> '[]'::jsonb`

	args := []any{}
	argNum := 1

	if f.BookingID != 0 {
		query += fmt.Sprintf(" AND b.id = $%d", argNum)
		args = append(args, f.BookingID)
		argNum++
	}
	if f.BuildingID != "" {
		query += fmt.Sprintf(" AND bld.id::text = $%d", argNum)
		args = append(args, f.BuildingID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LegacyRecord
	for rows.Next() {
		var bookingID int64
		var buildingID string
		var raw []byte
		if err := rows.Scan(&bookingID, &buildingID, &raw); err != nil {
			return nil, err
		}

		var entries []legacyEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("payments: decode legacy history for booking %d: %w", bookingID, err)
		}
		for _, e := range entries {
			paidOn, err := time.Parse("2006-01-02", e.PaidOn)
			if err != nil {
				// Old rows carry a handful of timestamp formats.
				paidOn, err = time.Parse(time.RFC3339, e.PaidOn)
				if err != nil {
					continue
				}
			}
			if !f.From.IsZero() && paidOn.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && paidOn.After(f.To) {
				continue
			}
			out = append(out, LegacyRecord{
				BookingID:  bookingID,
				BuildingID: buildingID,
				Amount:     money.FromFloat(e.Amount),
				Mode:       e.Mode,
				PaidOn:     paidOn,
			})
		}
	}
	return out, rows.Err()
}
