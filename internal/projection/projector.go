package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/course-designer/internal/db"
	"github.com/jonathan/course-designer/internal/logger"
)

var (
	// ErrNotFound is returned when a session or its content does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoActivities is returned for an existing session without activities.
	// It matches ErrNotFound.
	ErrNoActivities = fmt.Errorf("%w: session has no activities", ErrNotFound)
)

// Reader is the read side of the store the projector needs.
type Reader interface {
	GetSession(ctx context.Context, sessionID string) (*db.Session, error)
	ListActivities(ctx context.Context, sessionID string) ([]db.Activity, error)
	ListScripts(ctx context.Context, sessionID string) ([]db.Script, error)
}

// Metadata describes a projected document.
type Metadata struct {
	TotalActivities int       `json:"total_activities"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// SessionContent is the full content document of a session.
type SessionContent struct {
	SessionID     string   `json:"session_id"`
	SessionStatus string   `json:"session_status"`
	Content       Content  `json:"content"`
	Metadata      Metadata `json:"metadata"`
}

// Projector builds content documents from the store.
type Projector struct {
	reader Reader
	log    *logger.Logger
	now    func() time.Time
}

// NewProjector creates a Projector over reader.
func NewProjector(reader Reader, log *logger.Logger) *Projector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Projector{reader: reader, log: log, now: time.Now}
}

// Project returns the content document of a session wrapped in its envelope.
func (p *Projector) Project(ctx context.Context, sessionID string) (*SessionContent, error) {
	session, err := p.reader.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	activities, err := p.reader.ListActivities(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities for %s: %w", sessionID, err)
	}
	if len(activities) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNoActivities)
	}

	scripts, err := p.reader.ListScripts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts for %s: %w", sessionID, err)
	}

	content := Project(activities, scripts)
	p.log.Debug("projected session content", "session_id", sessionID,
		"activities", len(activities), "scripts", len(scripts))

	return &SessionContent{
		SessionID:     sessionID,
		SessionStatus: session.Status,
		Content:       content,
		Metadata: Metadata{
			TotalActivities: len(activities),
			GeneratedAt:     p.now(),
		},
	}, nil
}

// ProjectFlat returns only the content of the session document.
func (p *Projector) ProjectFlat(ctx context.Context, sessionID string) (Content, error) {
	doc, err := p.Project(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return doc.Content, nil
}
