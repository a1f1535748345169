package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Session Methods
// -----------------------------------------------------------------------------

const sessionColumns = `session_id, user_input, status, start_time, end_time,
	duration_seconds, execution_log, error_message, created_at, updated_at`

// CreateSession inserts a new pending session for the given input document.
// A zero startTime lets the database stamp the row.
func (db *DB) CreateSession(ctx context.Context, sessionID string, userInput map[string]any, startTime time.Time) error {
	inputJSON, err := marshalJSON(userInput, "{}")
	if err != nil {
		return &StoreError{Op: "create_session", SessionID: sessionID, Err: err}
	}

	return db.withTx(ctx, "create_session", sessionID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO workflow_sessions (session_id, user_input, status, start_time)
			 VALUES ($1, $2, $3, COALESCE($4::timestamptz, NOW()))`,
			sessionID, inputJSON, StatusPending, nullableTime(startTime),
		)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

// UpdateSession applies a partial update. Fields left nil in the patch are not
// touched. Returns ErrSessionNotFound (wrapped in a *StoreError) when no row matches.
func (db *DB) UpdateSession(ctx context.Context, sessionID string, patch SessionPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	query := "UPDATE workflow_sessions SET updated_at = NOW()"
	args := []interface{}{}
	argPos := 1

	if patch.Status != nil {
		query += fmt.Sprintf(", status = $%d", argPos)
		args = append(args, *patch.Status)
		argPos++
	}
	if patch.EndTime != nil {
		query += fmt.Sprintf(", end_time = $%d", argPos)
		args = append(args, *patch.EndTime)
		argPos++
	}
	if patch.DurationSeconds != nil {
		query += fmt.Sprintf(", duration_seconds = $%d", argPos)
		args = append(args, *patch.DurationSeconds)
		argPos++
	}
	if patch.ExecutionLog != nil {
		logJSON, err := json.Marshal(patch.ExecutionLog)
		if err != nil {
			return &StoreError{Op: "update_session", SessionID: sessionID, Err: err}
		}
		query += fmt.Sprintf(", execution_log = $%d", argPos)
		args = append(args, logJSON)
		argPos++
	}
	if patch.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argPos)
		args = append(args, *patch.ErrorMessage)
		argPos++
	}

	query += fmt.Sprintf(" WHERE session_id = $%d", argPos)
	args = append(args, sessionID)

	return db.withTx(ctx, "update_session", sessionID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// GetSession retrieves a session by id. Returns nil, nil when it does not exist.
func (db *DB) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM workflow_sessions
		 WHERE session_id = $1`,
		sessionID,
	)

	s, err := db.scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListRecentSessions returns at most limit sessions, newest first.
func (db *DB) ListRecentSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		return []Session{}, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM workflow_sessions
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := db.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (db *DB) scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var inputJSON, logJSON []byte

	if err := row.Scan(&s.SessionID, &inputJSON, &s.Status, &s.StartTime, &s.EndTime,
		&s.DurationSeconds, &logJSON, &s.ErrorMessage, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}

	db.decodeJSON("workflow_sessions.user_input", s.SessionID, inputJSON, &s.UserInput)
	db.decodeJSON("workflow_sessions.execution_log", s.SessionID, logJSON, &s.ExecutionLog)
	if s.ExecutionLog == nil {
		s.ExecutionLog = []string{}
	}
	return &s, nil
}

// Duration returns the elapsed time between start and end, or zero while running.
func (s *Session) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
