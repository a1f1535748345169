package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSessionNotFound is returned by updates that target an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrDuplicate is returned when an insert collides with an existing row on a
// unique key: a reused session id or a second analysis for one session.
var ErrDuplicate = errors.New("record already exists")

const uniqueViolation = "23505"

// classify tags unique-key violations with ErrDuplicate, keeping the driver error.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

// StoreError reports a persistence operation that could not complete.
type StoreError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *StoreError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("store %s failed for session %s: %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
