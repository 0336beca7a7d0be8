package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Repository provides PostgreSQL backed persistence for invoices and
// primary payments.
type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

const invoiceColumns = `
	id, number, tenant_id, COALESCE(building_id::text, ''), total, balance_due,
	status, due_date, version, created_at, updated_at`

// GetInvoice retrieves an invoice by id.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInvoiceBalance writes a new balance guarded by the version read at
// load time. Zero rows affected means another writer got there first.
func (r *Repository) UpdateInvoiceBalance(ctx context.Context, id int64, balance money.Amount, version int64) error {
	const query = `
		UPDATE invoices
		SET balance_due = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3`

	result, err := r.q.Exec(ctx, query, id, balance, version)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		// Either the row vanished or the version moved; distinguish so the
		// caller can prompt a refresh rather than report a missing invoice.
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return shared.ErrConflict
	}
	return nil
}

// ListInvoices returns invoices with optional filtering.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.TenantID > 0 {
		query += fmt.Sprintf(" AND tenant_id = $%d", argNum)
		args = append(args, req.TenantID)
		argNum++
	}
	if req.BuildingID != "" {
		query += fmt.Sprintf(" AND building_id::text = $%d", argNum)
		args = append(args, req.BuildingID)
		argNum++
	}

	query += " ORDER BY due_date NULLS LAST, id"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// ListOpenInvoices returns invoices still carrying a balance, excluding
// drafts and voided ones. A non-empty buildingID restricts to one building.
func (r *Repository) ListOpenInvoices(ctx context.Context, buildingID string) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE balance_due > 0 AND status NOT IN ('draft', 'void')`

	args := []any{}
	if buildingID != "" {
		query += " AND building_id::text = $1"
		args = append(args, buildingID)
	}
	query += " ORDER BY due_date NULLS LAST, id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

const paymentColumns = `
	id, COALESCE(invoice_id, 0), COALESCE(booking_id, 0),
	COALESCE(building_id::text, ''), amount, method, received_at,
	created_at, updated_at`

// GetPayment retrieves a primary payment by id.
func (r *Repository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// InsertPayment stores a new payment row.
func (r *Repository) InsertPayment(ctx context.Context, p Payment) error {
	const query = `
		INSERT INTO payments (id, invoice_id, booking_id, building_id, amount, method, received_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.q.Exec(ctx, query,
		p.ID, nullableID(p.InvoiceID), nullableID(p.BookingID), nullableText(p.BuildingID),
		p.Amount, p.Method, p.ReceivedAt, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	return err
}

// UpdatePayment amends an existing payment row.
func (r *Repository) UpdatePayment(ctx context.Context, p Payment) error {
	const query = `
		UPDATE payments
		SET invoice_id = $2, amount = $3, method = $4, received_at = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.q.Exec(ctx, query,
		p.ID, nullableID(p.InvoiceID), p.Amount, p.Method, p.ReceivedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeletePayment removes a payment row.
func (r *Repository) DeletePayment(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// WithTx runs fn against a repository bound to a repeatable-read
// transaction. Balance writes and payment rows commit or roll back together.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, repo RepositoryPort) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("billing: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &Repository{pool: r.pool, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("billing: commit tx: %w", err)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var dueDate pgtype.Timestamptz
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.TenantID, &inv.BuildingID, &inv.Total, &inv.BalanceDue,
		&inv.Status, &dueDate, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		t := dueDate.Time
		inv.DueDate = &t
	}
	return &inv, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.InvoiceID, &p.BookingID, &p.BuildingID,
		&p.Amount, &p.Method, &p.ReceivedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Source = SourcePrimary
	return &p, nil
}

func nullableID(id int64) pgtype.Int8 {
	if id == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: id, Valid: true}
}

func nullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
