package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CleanupOlderThan deletes sessions created more than days days ago, together
// with their analyses, activities, scripts and statistics. It returns the
// number of sessions removed.
func (db *DB) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, &StoreError{Op: "cleanup", Err: fmt.Errorf("days must be >= 0, got %d", days)}
	}

	var deleted int64
	err := db.withTx(ctx, "cleanup", "", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM workflow_sessions
			 WHERE created_at < NOW() - make_interval(days => $1)`,
			days,
		)
		if err != nil {
			return fmt.Errorf("failed to delete old sessions: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.log.Info("cleaned up old sessions", "days", days, "deleted", deleted)
	return deleted, nil
}
