package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueRefresh refreshes the overdue invoice reporting view.
	TaskOverdueRefresh = "billing:overdue_refresh"
	// TaskDuesDigestWarmup pre-computes the dues dashboard digest.
	TaskDuesDigestWarmup = "dues:digest_warmup"
)

// DuesWarmupPayload selects which scope to warm.
type DuesWarmupPayload struct {
	Scope string `json:"scope"`
}

// NewOverdueRefreshTask constructs the nightly refresh task.
func NewOverdueRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueRefresh, nil)
}

// NewDuesWarmupTask constructs a digest warmup task for one scope.
func NewDuesWarmupTask(scope string) (*asynq.Task, error) {
	data, err := json.Marshal(DuesWarmupPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDuesDigestWarmup, data), nil
}
