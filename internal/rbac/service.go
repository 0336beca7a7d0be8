package rbac

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Service is the PostgreSQL-backed Gate. Grants live in a flat
// permission_grants table keyed by user, module, action and scope; a row
// scoped to shared.ScopeGlobal covers every scope for that module/action.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{pool: pool, logger: logger}
}

var _ Gate = (*Service)(nil)

// Can reports whether the context actor holds the capability. Lookup errors
// deny: a gate that cannot be evaluated must not allow mutations through.
func (s *Service) Can(ctx context.Context, module, action, scope string) bool {
	actor := shared.ActorFromContext(ctx)
	if actor == nil || actor.UserID == 0 {
		return false
	}

	const query = `
		SELECT EXISTS (
			SELECT 1 FROM permission_grants
			WHERE user_id = $1 AND module = $2 AND action = $3
			  AND scope IN ($4, $5)
		)`

	var granted bool
	err := s.pool.QueryRow(ctx, query, actor.UserID, module, action, scope, shared.ScopeGlobal).Scan(&granted)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("rbac lookup", slog.Any("error", err),
				slog.String("module", module), slog.String("action", action))
		}
		return false
	}
	return granted
}
