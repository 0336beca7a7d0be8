package dues

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// InvoiceSource supplies the open invoice snapshot to classify. An empty
// buildingID means all buildings.
type InvoiceSource interface {
	ListOpenInvoices(ctx context.Context, buildingID string) ([]billing.Invoice, error)
}

// Service computes dues summaries. The classifier output is never stored as
// authoritative state; the redis digest is a warm copy for the dashboard
// with a short TTL, refreshed by the background worker.
type Service struct {
	source InvoiceSource
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service instance. A nil cache disables the digest.
func NewService(source InvoiceSource, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Summary classifies the open invoices of one scope as of now. The scope is
// a building id or shared.ScopeGlobal; the source fetch is narrowed to it so
// a building-scoped summary never counts other buildings.
func (s *Service) Summary(ctx context.Context, scope string) (Buckets, error) {
	invoices, err := s.source.ListOpenInvoices(ctx, buildingFilter(scope))
	if err != nil {
		return Buckets{}, err
	}
	return Classify(invoices, s.clock()), nil
}

// WarmDigest recomputes the scope's summary and stores it under the digest
// key. Called from the background worker; dashboard reads fall back to a
// fresh Summary when the digest is cold.
func (s *Service) WarmDigest(ctx context.Context, scope string) error {
	scope = normalizeScope(scope)
	buckets, err := s.Summary(ctx, scope)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(buckets)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, shared.DuesDigestKey(scope), data, s.ttl).Err()
}

// CachedSummary returns the warmed digest when present, recomputing
// otherwise. The digest is advisory: a miss or decode failure silently falls
// back to the live computation.
func (s *Service) CachedSummary(ctx context.Context, scope string) (Buckets, error) {
	scope = normalizeScope(scope)
	if s.cache != nil {
		data, err := s.cache.Get(ctx, shared.DuesDigestKey(scope)).Bytes()
		if err == nil {
			var buckets Buckets
			if err := json.Unmarshal(data, &buckets); err == nil {
				return buckets, nil
			}
			if s.logger != nil {
				s.logger.Warn("corrupt dues digest, recomputing", slog.String("scope", scope))
			}
		}
	}
	return s.Summary(ctx, scope)
}

func normalizeScope(scope string) string {
	if scope == "" {
		return shared.ScopeGlobal
	}
	return scope
}

// buildingFilter maps the digest scope to the source filter: the global
// scope spans every building.
func buildingFilter(scope string) string {
	if scope == shared.ScopeGlobal {
		return ""
	}
	return scope
}
