package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartStaleTaskCleaner periodically deletes daily tasks that were never
// completed and whose day is older than retention. Completed tasks carry
// credited XP and are never touched.
func StartStaleTaskCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-retention).Format("2006-01-02")
				res, err := db.ExecContext(ctx, `
                    DELETE FROM daily_tasks
                     WHERE is_completed = false
                       AND task_date < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean stale daily tasks", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned stale daily tasks", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
