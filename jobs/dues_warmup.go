package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/lodgekeep/lodgekeep/internal/dues"
)

// DuesWarmupJob pre-computes the dues digest so dashboard loads stay cheap.
type DuesWarmupJob struct {
	Dues   *dues.Service
	Logger *slog.Logger
}

// NewDuesWarmupJob wires dependencies for the warmup handler.
func NewDuesWarmupJob(svc *dues.Service, logger *slog.Logger) *DuesWarmupJob {
	return &DuesWarmupJob{Dues: svc, Logger: logger}
}

// Handle processes dues warmup tasks.
func (j *DuesWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dues == nil {
		return errors.New("dues warmup: handler not configured")
	}
	var payload DuesWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	if err := j.Dues.WarmDigest(ctx, payload.Scope); err != nil {
		if j.Logger != nil {
			j.Logger.Error("warm dues digest", slog.Any("error", err), slog.String("scope", payload.Scope))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("warmed dues digest", slog.String("scope", payload.Scope))
	}
	return nil
}
