// Package db provides PostgreSQL persistence for workflow sessions and their generated content.
//
// Every write runs in its own transaction. There is no transaction spanning
// several stage writes, so a crash between two writes leaves a session that is
// partially populated but readable.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/course-designer/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.NewNop()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, log: log}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping reports whether the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction that commits on success and rolls back on
// any error. Failures are logged and returned as *StoreError.
func (db *DB) withTx(ctx context.Context, op, sessionID string, fn func(tx pgx.Tx) error) error {
	if err := pgx.BeginFunc(ctx, db.pool, fn); err != nil {
		storeErr := &StoreError{Op: op, SessionID: sessionID, Err: classify(err)}
		db.log.Error("store operation failed", "op", op, "session_id", sessionID, "error", err)
		return storeErr
	}
	return nil
}

// marshalJSON encodes v for a JSONB column, substituting fallback for nil.
func marshalJSON(v any, fallback string) ([]byte, error) {
	if v == nil {
		return []byte(fallback), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %w", err)
	}
	if string(b) == "null" {
		return []byte(fallback), nil
	}
	return b, nil
}

// decodeJSON unmarshals a JSONB column into dst. A NULL column leaves dst
// untouched. A corrupt value resets dst to its zero value and is logged
// without failing the read.
func (db *DB) decodeJSON(column, sessionID string, data []byte, dst any) {
	if data == nil {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		reflect.ValueOf(dst).Elem().SetZero()
		db.log.Warn("failed to decode stored json", "column", column, "session_id", sessionID, "error", err)
	}
}
