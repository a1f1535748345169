package workflow

import (
	"errors"
	"fmt"

	"github.com/jonathan/course-designer/internal/db"
)

// Status is the lifecycle state of a workflow session.
type Status string

// Session statuses. The values are the ones persisted by the store.
const (
	StatusPending    Status = db.StatusPending
	StatusInProgress Status = db.StatusInProgress
	StatusCompleted  Status = db.StatusCompleted
	StatusFailed     Status = db.StatusFailed
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Event drives a status transition.
type Event string

const (
	EventStart       Event = "start"
	EventStageFailed Event = "stage_failed"
	EventFinished    Event = "finished"
)

// ErrInvalidTransition is returned for an event the current status does not accept.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventStart:       StatusInProgress,
		EventStageFailed: StatusFailed,
	},
	StatusInProgress: {
		EventStageFailed: StatusFailed,
		EventFinished:    StatusCompleted,
	},
}

// Transition returns the status reached from s on event ev. Terminal
// statuses accept no event.
func Transition(s Status, ev Event) (Status, error) {
	next, ok := transitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, ev)
	}
	return next, nil
}

// Stage names a pipeline step.
type Stage string

const (
	StageInitialize Stage = "initialize"
	StageAnalyze    Stage = "analyze"
	StageSequence   Stage = "sequence"
	StageScript     Stage = "script"
	StageFinalize   Stage = "finalize"
)

// Stages lists the pipeline steps in execution order.
var Stages = []Stage{StageInitialize, StageAnalyze, StageSequence, StageScript, StageFinalize}
