// Package catalog exposes read-only building and bed lookups. The
// reconciliation core only consumes identifiers from it for permission
// scoping; it never writes back.
package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Lookup answers scope derivation queries for bookings. Bed lookups are not
// part of it: bookings carry their bed id on the row itself.
type Lookup interface {
	// BuildingForBooking returns the booking's building id, or
	// shared.ScopeGlobal when the booking has no building.
	BuildingForBooking(ctx context.Context, bookingID int64) (string, error)
}

// Repository is the PostgreSQL-backed Lookup.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Lookup = (*Repository)(nil)

// BuildingForBooking resolves a booking's building via its assigned bed.
func (r *Repository) BuildingForBooking(ctx context.Context, bookingID int64) (string, error) {
	const query = `
		SELECT bld.id::text
		FROM bookings b
		JOIN beds bd ON bd.id = b.bed_id
		JOIN rooms rm ON rm.id = bd.room_id
		JOIN buildings bld ON bld.id = rm.building_id
		WHERE b.id = $1`

	var building string
	err := r.pool.QueryRow(ctx, query, bookingID).Scan(&building)
	if errors.Is(err, pgx.ErrNoRows) {
		// No bed assigned, or booking gone entirely; the caller decides
		// whether a missing booking matters.
		return shared.ScopeGlobal, nil
	}
	if err != nil {
		return "", err
	}
	return building, nil
}
