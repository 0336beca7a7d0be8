package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Repository provides PostgreSQL backed persistence for bookings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `
	b.id, b.tenant_id, b.status, b.bed_id,
	COALESCE(bld.id::text, '') AS building_id,
	b.start_date, b.created_at, b.updated_at`

const bookingJoins = `
	FROM bookings b
	LEFT JOIN beds bd ON bd.id = b.bed_id
	LEFT JOIN rooms rm ON rm.id = bd.room_id
	LEFT JOIN buildings bld ON bld.id = rm.building_id`

// GetBooking retrieves a booking by id.
func (r *Repository) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	query := `SELECT ` + bookingColumns + bookingJoins + ` WHERE b.id = $1`

	bk, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bk, nil
}

// UpdateStatus persists the new status and returns the updated row.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) (*Booking, error) {
	const query = `
		UPDATE bookings SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, string(status))
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.GetBooking(ctx, id)
}

// ListBookings returns bookings with optional filtering.
func (r *Repository) ListBookings(ctx context.Context, req ListBookingsRequest) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + bookingJoins + ` WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND b.status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.BuildingID != "" {
		query += fmt.Sprintf(" AND bld.id::text = $%d", argNum)
		args = append(args, req.BuildingID)
		argNum++
	}

	query += " ORDER BY b.start_date DESC"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *bk)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var bk Booking
	var bedID pgtype.Int8
	err := row.Scan(
		&bk.ID, &bk.TenantID, &bk.Status, &bedID,
		&bk.BuildingID, &bk.StartDate, &bk.CreatedAt, &bk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bk.BedID = bedID.Int64
	return &bk, nil
}
