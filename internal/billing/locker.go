package billing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lodgekeep/lodgekeep/internal/shared"
)

// Locker serializes same-process invoice writers ahead of the optimistic
// version check, so concurrent payment submissions against one invoice fail
// fast instead of burning a transaction each.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker constructs a Locker. A nil client disables locking entirely and
// leaves serialization to the version check alone.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

const (
	lockRetries    = 10
	lockRetryDelay = 50 * time.Millisecond
)

// Acquire takes the invoice lock, retrying briefly before giving up with
// shared.ErrConflict. The returned release function is safe to call once.
func (l *Locker) Acquire(ctx context.Context, invoiceID int64) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	key := shared.InvoiceLockKey(invoiceID)
	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = l.client.Del(context.WithoutCancel(ctx), key).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return nil, errors.Join(shared.ErrConflict, errors.New("invoice lock busy"))
}
