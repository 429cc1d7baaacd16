package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSessionPrune is the task type for removing expired session rows.
	TaskTypeSessionPrune = "sessions:prune"
)

// SessionPrunePayload bounds a single prune pass.
type SessionPrunePayload struct {
	BatchSize int `json:"batch_size"`
}

// NewSessionPruneTask constructs an Asynq task.
func NewSessionPruneTask(payload SessionPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionPrune, data), nil
}
