// Package agents defines the three generation agents the workflow drives
// (objective analysis, sequencing, script writing) and their LLM-backed
// implementations.
package agents

import (
	"context"
	"errors"
	"io"

	"github.com/jonathan/course-designer/internal/llm"
	"github.com/jonathan/course-designer/internal/types"
)

// ErrMissingAPIKey is returned by a Factory built without credentials.
var ErrMissingAPIKey = llm.ErrMissingAPIKey

// Analyzer turns a course brief into a structured objective analysis.
type Analyzer interface {
	Analyze(ctx context.Context, brief string) (*types.Analysis, error)
}

// Sequencer plans the ordered activities of a course from its analysis.
type Sequencer interface {
	Sequence(ctx context.Context, analysis *types.Analysis) ([]types.ActivityDescriptor, error)
}

// ScriptGenerator writes the script of one activity. The result is either
// free text (string) or a structured document.
type ScriptGenerator interface {
	Generate(ctx context.Context, activity types.ActivityDescriptor, activityType string) (any, error)
}

// Set bundles the agents used for one pipeline run.
type Set struct {
	Analyzer  Analyzer
	Sequencer Sequencer
	Scripts   ScriptGenerator

	closer io.Closer
}

// NewSet assembles a Set. closer may be nil.
func NewSet(analyzer Analyzer, sequencer Sequencer, scripts ScriptGenerator, closer io.Closer) *Set {
	return &Set{Analyzer: analyzer, Sequencer: sequencer, Scripts: scripts, closer: closer}
}

// Validate reports a Set with a missing agent.
func (s *Set) Validate() error {
	if s == nil || s.Analyzer == nil || s.Sequencer == nil || s.Scripts == nil {
		return errors.New("agent set is incomplete")
	}
	return nil
}

// Close releases the resources shared by the agents.
func (s *Set) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Credentials carries what a Factory needs to reach the model provider.
type Credentials struct {
	APIKey string
}

// Factory builds the agents for a pipeline run.
type Factory interface {
	Build(ctx context.Context, creds Credentials) (*Set, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, creds Credentials) (*Set, error)

// Build calls f.
func (f FactoryFunc) Build(ctx context.Context, creds Credentials) (*Set, error) {
	return f(ctx, creds)
}
