package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

func TestSessionPruneHandlerSkipsBadPayload(t *testing.T) {
	handler := NewSessionPruneHandler(nil, nil)

	task := asynq.NewTask(TaskTypeSessionPrune, []byte("not json"))
	err := handler(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestSessionPruneHandlerNoPool(t *testing.T) {
	handler := NewSessionPruneHandler(nil, nil)

	task, err := NewSessionPruneTask(SessionPrunePayload{BatchSize: 10})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("expected no-op without a pool, got %v", err)
	}
}
