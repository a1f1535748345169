package workflow

import (
	"errors"
	"fmt"
)

// ErrEmptySequence is returned when the sequencer plans no activity.
var ErrEmptySequence = errors.New("sequencer returned no activities")

// ConfigurationError reports missing or invalid credentials. It aborts the
// run before any agent is called.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StageFailure reports the stage that halted the pipeline.
type StageFailure struct {
	Stage Stage
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error {
	return e.Err
}

// PartialItemFailure reports one activity whose script could not be
// generated. The pipeline continues without it.
type PartialItemFailure struct {
	Index    int // 0-based position in the sequence
	ScriptID string
	Err      error
}

func (e *PartialItemFailure) Error() string {
	return fmt.Sprintf("script %d (%s) failed: %v", e.Index+1, e.ScriptID, e.Err)
}

func (e *PartialItemFailure) Unwrap() error {
	return e.Err
}

// panicError converts a recovered value into an error.
func panicError(p any) error {
	if err, ok := p.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", p)
}
