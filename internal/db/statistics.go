package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SaveStatistics stores the per-session statistics computed at finalization.
func (db *DB) SaveStatistics(ctx context.Context, sessionID string, stats *WorkflowStatistics) error {
	if stats == nil {
		return nil
	}

	bloomJSON, err := marshalJSON(stats.BloomDistribution, "{}")
	if err != nil {
		return &StoreError{Op: "save_statistics", SessionID: sessionID, Err: err}
	}
	difficultyJSON, err := marshalJSON(stats.DifficultyDistribution, "{}")
	if err != nil {
		return &StoreError{Op: "save_statistics", SessionID: sessionID, Err: err}
	}
	typesJSON, err := marshalJSON(stats.ActivityTypesDistribution, "{}")
	if err != nil {
		return &StoreError{Op: "save_statistics", SessionID: sessionID, Err: err}
	}

	return db.withTx(ctx, "save_statistics", sessionID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO workflow_statistics (session_id, total_objectives, total_activities, total_scripts,
			     total_documents_processed, bloom_distribution, difficulty_distribution, activity_types_distribution)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sessionID, stats.TotalObjectives, stats.TotalActivities, stats.TotalScripts,
			stats.TotalDocumentsProcessed, bloomJSON, difficultyJSON, typesJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert statistics: %w", err)
		}
		return nil
	})
}

// GetStatistics retrieves the latest statistics row of a session. Returns nil, nil when absent.
func (db *DB) GetStatistics(ctx context.Context, sessionID string) (*WorkflowStatistics, error) {
	var s WorkflowStatistics
	var bloomJSON, difficultyJSON, typesJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT session_id, total_objectives, total_activities, total_scripts, total_documents_processed,
		        bloom_distribution, difficulty_distribution, activity_types_distribution
		 FROM workflow_statistics
		 WHERE session_id = $1
		 ORDER BY id DESC
		 LIMIT 1`,
		sessionID,
	).Scan(&s.SessionID, &s.TotalObjectives, &s.TotalActivities, &s.TotalScripts,
		&s.TotalDocumentsProcessed, &bloomJSON, &difficultyJSON, &typesJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	db.decodeJSON("workflow_statistics.bloom_distribution", sessionID, bloomJSON, &s.BloomDistribution)
	db.decodeJSON("workflow_statistics.difficulty_distribution", sessionID, difficultyJSON, &s.DifficultyDistribution)
	db.decodeJSON("workflow_statistics.activity_types_distribution", sessionID, typesJSON, &s.ActivityTypesDistribution)

	return &s, nil
}

// CountSessions returns the total number of sessions.
func (db *DB) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM workflow_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// SessionCounts holds the session aggregates read in one statement.
type SessionCounts struct {
	Total              int64
	Completed          int64
	Failed             int64
	AvgDurationSeconds float64
}

// SessionCounts counts sessions by outcome and averages the known durations.
// All figures come from one snapshot, so Completed+Failed never exceeds Total.
// Sessions without a duration are left out of the average; an empty set yields 0.
func (db *DB) SessionCounts(ctx context.Context) (SessionCounts, error) {
	var c SessionCounts
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = $1),
		        COUNT(*) FILTER (WHERE status = $2),
		        COALESCE(AVG(duration_seconds), 0)
		 FROM workflow_sessions`,
		StatusCompleted, StatusFailed,
	).Scan(&c.Total, &c.Completed, &c.Failed, &c.AvgDurationSeconds)
	if err != nil {
		return SessionCounts{}, fmt.Errorf("failed to count sessions: %w", err)
	}
	return c, nil
}
