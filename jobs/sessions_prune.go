package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPruneBatch = 1000

// NewSessionPruneHandler returns an Asynq handler that deletes expired
// session rows in bounded batches. The Redis copies expire on their own TTL;
// this keeps the audit table from growing without bound.
func NewSessionPruneHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.BatchSize <= 0 {
			payload.BatchSize = defaultPruneBatch
		}
		if pool == nil {
			return nil
		}
		tag, err := pool.Exec(ctx,
			`DELETE FROM sessions WHERE id IN (
				SELECT id FROM sessions WHERE expires_at < now() LIMIT $1
			)`, payload.BatchSize)
		if err != nil {
			if logger != nil {
				logger.Error("prune sessions", slog.Any("error", err))
			}
			return err
		}
		if logger != nil && tag.RowsAffected() > 0 {
			logger.Info("pruned expired sessions", slog.Int64("removed", tag.RowsAffected()))
		}
		return nil
	}
}
