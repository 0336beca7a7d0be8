package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverdueRefreshJob refreshes the reporting view that dashboards read for
// overdue invoice listings. Invoice status stays derived; the view is a
// denormalized snapshot, not a source of truth.
type OverdueRefreshJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewOverdueRefreshJob wires dependencies for the refresh handler.
func NewOverdueRefreshJob(pool *pgxpool.Pool, logger *slog.Logger) *OverdueRefreshJob {
	return &OverdueRefreshJob{Pool: pool, Logger: logger}
}

// Handle processes overdue refresh tasks.
func (j *OverdueRefreshJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return nil
	}
	if _, err := j.Pool.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY overdue_invoices`); err != nil {
		if j.Logger != nil {
			j.Logger.Error("refresh overdue_invoices", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("refreshed overdue_invoices", slog.String("job", "overdue_refresh"))
	}
	return nil
}
