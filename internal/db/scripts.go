package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Script Methods
// -----------------------------------------------------------------------------

// EncodeScriptContent renders script content for storage. Strings are kept
// verbatim; anything else is stored as its JSON encoding.
func EncodeScriptContent(content any) (string, error) {
	switch c := content.(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	case []byte:
		return string(c), nil
	case json.RawMessage:
		return string(c), nil
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("failed to marshal script content: %w", err)
		}
		return string(b), nil
	}
}

// SaveScripts stores the generated scripts of a session in insertion order.
func (db *DB) SaveScripts(ctx context.Context, sessionID string, scripts []ScriptInput) error {
	if len(scripts) == 0 {
		return nil
	}

	type row struct {
		activity []byte
		content  string
	}
	encoded := make([]row, len(scripts))
	for i, s := range scripts {
		activityJSON, err := marshalJSON(s.Activity, "{}")
		if err != nil {
			return &StoreError{Op: "save_scripts", SessionID: sessionID, Err: err}
		}
		content, err := EncodeScriptContent(s.Content)
		if err != nil {
			return &StoreError{Op: "save_scripts", SessionID: sessionID, Err: err}
		}
		encoded[i] = row{activity: activityJSON, content: content}
	}

	return db.withTx(ctx, "save_scripts", sessionID, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, s := range scripts {
			batch.Queue(
				`INSERT INTO generated_scripts (session_id, script_id, activity_data, script_content, script_type)
				 VALUES ($1, $2, $3, $4, $5)`,
				sessionID, s.ScriptID, encoded[i].activity, encoded[i].content, s.ScriptType,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range scripts {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert script %d: %w", i, err)
			}
		}
		return results.Close()
	})
}

// ListScripts returns the scripts of a session in insertion order.
func (db *DB) ListScripts(ctx context.Context, sessionID string) ([]Script, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, script_id, activity_data, script_content, script_type, created_at
		 FROM generated_scripts
		 WHERE session_id = $1
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	defer rows.Close()

	scripts := []Script{}
	for rows.Next() {
		var s Script
		var activityJSON []byte
		if err := rows.Scan(&s.ID, &s.SessionID, &s.ScriptID, &activityJSON, &s.Content,
			&s.ScriptType, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan script: %w", err)
		}
		db.decodeJSON("scripts.activity_data", sessionID, activityJSON, &s.ActivityData)
		scripts = append(scripts, s)
	}
	return scripts, rows.Err()
}
