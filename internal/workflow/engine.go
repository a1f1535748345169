// Package workflow drives a course design session through its stages:
// agent initialization, objective analysis, sequencing, script generation
// and finalization. Each stage's output is persisted before the next one
// starts, and every run ends in a terminal state object.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/course-designer/internal/agents"
	"github.com/jonathan/course-designer/internal/db"
	"github.com/jonathan/course-designer/internal/fetch"
	"github.com/jonathan/course-designer/internal/logger"
	"github.com/jonathan/course-designer/internal/stats"
	"github.com/jonathan/course-designer/internal/types"
)

// Store persists session state and stage outputs.
type Store interface {
	CreateSession(ctx context.Context, sessionID string, userInput map[string]any, startTime time.Time) error
	UpdateSession(ctx context.Context, sessionID string, patch db.SessionPatch) error
	SaveAnalysis(ctx context.Context, sessionID string, analysis *types.Analysis) error
	SaveActivities(ctx context.Context, sessionID string, activities []types.ActivityDescriptor) error
	SaveScripts(ctx context.Context, sessionID string, scripts []db.ScriptInput) error
	SaveStatistics(ctx context.Context, sessionID string, stats *db.WorkflowStatistics) error
}

// DocumentFetcher retrieves the reference documents named in the input.
type DocumentFetcher interface {
	Documents(ctx context.Context, urls []string) []fetch.Document
}

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`
	Message   string `json:"message"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called when a stage starts or finishes
type ProgressCallback func(event ProgressEvent)

// Config holds the engine settings. It is passed in explicitly; the engine
// reads no environment.
type Config struct {
	APIKey     string
	OutputDir  string // Stage outputs are dumped here as JSON when set
	OnProgress ProgressCallback
}

// Engine runs course design sessions. An Engine holds no per-session state
// and may run several sessions concurrently.
type Engine struct {
	store   Store
	factory agents.Factory
	docs    DocumentFetcher
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
}

// NewEngine creates an Engine. store and docs may be nil to run without
// persistence or reference documents.
func NewEngine(store Store, factory agents.Factory, docs DocumentFetcher, cfg Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{store: store, factory: factory, docs: docs, cfg: cfg, log: log, now: time.Now}
}

// GeneratedScript is the script produced for one activity.
type GeneratedScript struct {
	ScriptID    string                   `json:"script_id"`
	Activity    types.ActivityDescriptor `json:"activite"`
	Script      any                      `json:"script"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Result is the terminal state of a run. Callers branch on Status.
type Result struct {
	SessionID          string                     `json:"session_id"`
	Status             Status                     `json:"status"`
	ErrorMessage       string                     `json:"error_message,omitempty"`
	Err                error                      `json:"-"`
	StartTime          time.Time                  `json:"start_time"`
	EndTime            time.Time                  `json:"end_time"`
	Duration           time.Duration              `json:"duration"`
	ExecutionLog       []string                   `json:"execution_log"`
	Analysis           *types.Analysis            `json:"agent_analysis,omitempty"`
	Activities         []types.ActivityDescriptor `json:"sequencer_data,omitempty"`
	Scripts            []GeneratedScript          `json:"scripts,omitempty"`
	ScriptFailures     []*PartialItemFailure      `json:"-"`
	DocumentsProcessed int                        `json:"documents_processed"`
	Statistics         *db.WorkflowStatistics     `json:"statistics,omitempty"`
	Output             *Output                    `json:"-"`
}

// Failed reports whether the run ended in failure.
func (r *Result) Failed() bool {
	return r.Status == StatusFailed
}

// Run executes the pipeline for input. An empty sessionID is replaced by a
// fresh identifier. Run never panics and never returns an error: failures
// are reported through the returned Result.
func (e *Engine) Run(ctx context.Context, input types.UserInput, sessionID string) (res *Result) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	r := &run{
		engine: e,
		input:  input,
		log:    e.log.With("session_id", sessionID),
		result: &Result{
			SessionID:    sessionID,
			Status:       StatusPending,
			StartTime:    e.now(),
			ExecutionLog: []string{},
		},
	}

	defer func() {
		if p := recover(); p != nil {
			err := panicError(p)
			r.log.Error("workflow crashed", "error", err)
			r.fail(fmt.Errorf("critical error: %w", err))
			r.terminate(ctx)
			res = r.result
		}
	}()

	r.log.Info("starting workflow", "subject", input.CourseSubject)
	if err := r.start(ctx); err != nil {
		r.fail(err)
	} else {
		for _, stage := range Stages {
			if err := r.runStage(ctx, stage); err != nil {
				r.fail(err)
				break
			}
		}
	}
	if !r.result.Status.IsTerminal() {
		r.advance(EventFinished)
	}

	r.terminate(ctx)
	return r.result
}

// run holds the state of one session.
type run struct {
	engine     *Engine
	input      types.UserInput
	log        *logger.Logger
	result     *Result
	set        *agents.Set
	terminated bool
	// foreign is set when the session id belongs to an existing record;
	// nothing is written under it.
	foreign bool
}

// start records the session and moves it to in_progress. A store outage is
// logged and the run goes on; an id that is already taken fails the run.
func (r *run) start(ctx context.Context) error {
	e := r.engine
	if e.store != nil {
		if err := e.store.CreateSession(ctx, r.result.SessionID, r.input.ToMap(), r.result.StartTime); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				r.foreign = true
				return fmt.Errorf("session %s already exists: %w", r.result.SessionID, err)
			}
			r.log.Error("failed to create session record", "error", err)
		}
	}
	r.advance(EventStart)
	r.persist(ctx, "status", func(s Store) error {
		status := string(StatusInProgress)
		return s.UpdateSession(ctx, r.result.SessionID, db.SessionPatch{Status: &status})
	})
	return nil
}

func (r *run) advance(ev Event) {
	next, err := Transition(r.result.Status, ev)
	if err != nil {
		r.log.Warn("ignored status transition", "error", err)
		return
	}
	r.result.Status = next
}

// fail records the first error and moves the session to failed.
func (r *run) fail(err error) {
	if r.result.Err == nil {
		r.result.Err = err
		r.result.ErrorMessage = err.Error()
	}
	r.advance(EventStageFailed)
}

// runStage executes one stage, converting errors and panics into a StageFailure.
func (r *run) runStage(ctx context.Context, stage Stage) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
		if err != nil {
			r.logf("❌ %s failed: %v", stage, err)
			r.log.Error("stage failed", "stage", stage, "error", err)
			err = &StageFailure{Stage: stage, Err: err}
		}
	}()

	switch stage {
	case StageInitialize:
		return r.initialize(ctx)
	case StageAnalyze:
		return r.analyze(ctx)
	case StageSequence:
		return r.sequence(ctx)
	case StageScript:
		return r.script(ctx)
	case StageFinalize:
		return r.finalize(ctx)
	}
	return fmt.Errorf("unknown stage %q", stage)
}

func (r *run) initialize(ctx context.Context) error {
	r.logf("🔧 Initializing agents...")
	r.progress(StageInitialize, "Initializing agents", nil)

	e := r.engine
	if e.factory == nil {
		return &ConfigurationError{Err: errors.New("no agent factory configured")}
	}
	set, err := e.factory.Build(ctx, agents.Credentials{APIKey: e.cfg.APIKey})
	if err != nil {
		if errors.Is(err, agents.ErrMissingAPIKey) {
			return &ConfigurationError{Err: err}
		}
		return fmt.Errorf("failed to build agents: %w", err)
	}
	if err := set.Validate(); err != nil {
		return &ConfigurationError{Err: err}
	}
	r.set = set

	r.logf("✅ All agents initialized")
	return nil
}

func (r *run) analyze(ctx context.Context) error {
	r.logf("🤖 Analyzing objectives...")
	r.progress(StageAnalyze, "Analyzing learning objectives", nil)

	var docs []fetch.Document
	if len(r.input.ReferenceURLs) > 0 && r.engine.docs != nil {
		docs = r.engine.docs.Documents(ctx, r.input.ReferenceURLs)
		r.result.DocumentsProcessed = len(docs)
		r.logf("📄 %d/%d reference documents fetched", len(docs), len(r.input.ReferenceURLs))
	}

	brief, err := BuildBrief(r.input, docs)
	if err != nil {
		return err
	}

	analysis, err := r.set.Analyzer.Analyze(ctx, brief)
	if err != nil {
		return err
	}
	if analysis == nil {
		return errors.New("analyzer returned no result")
	}
	r.result.Analysis = analysis

	r.persist(ctx, "analysis", func(s Store) error {
		return s.SaveAnalysis(ctx, r.result.SessionID, analysis)
	})
	r.dump("agent_analysis", analysis)

	r.logf("✅ Analysis complete (%d objectives)", analysis.ObjectiveCount())
	r.progress(StageAnalyze, "Analysis complete", analysis)
	return nil
}

func (r *run) sequence(ctx context.Context) error {
	r.logf("📚 Generating sequence...")
	r.progress(StageSequence, "Planning activities", nil)

	if r.result.Analysis == nil {
		return errors.New("analysis results are missing")
	}

	planned, err := r.set.Sequencer.Sequence(ctx, r.result.Analysis)
	if err != nil {
		return err
	}
	if len(planned) == 0 {
		return ErrEmptySequence
	}

	activities := make([]types.ActivityDescriptor, len(planned))
	for i, a := range planned {
		activities[i] = a.Normalize(i)
	}
	r.result.Activities = activities

	r.persist(ctx, "activities", func(s Store) error {
		return s.SaveActivities(ctx, r.result.SessionID, activities)
	})
	r.dump("sequencer", activities)

	r.logf("✅ Sequence generated (%d activities)", len(activities))
	r.progress(StageSequence, fmt.Sprintf("Planned %d activities", len(activities)), activities)
	return nil
}

func (r *run) script(ctx context.Context) error {
	r.logf("📝 Generating scripts...")
	r.progress(StageScript, "Writing scripts", nil)

	if len(r.result.Activities) == 0 {
		return errors.New("sequence data is missing")
	}

	scripts := make([]GeneratedScript, 0, len(r.result.Activities))
	for i, activity := range r.result.Activities {
		if err := ctx.Err(); err != nil {
			return err
		}

		script, err := r.generateScript(ctx, activity)
		if err != nil {
			failure := &PartialItemFailure{Index: i, ScriptID: activity.ScriptID(), Err: err}
			r.result.ScriptFailures = append(r.result.ScriptFailures, failure)
			r.logf("⚠️ Script %d error: %v", i+1, err)
			r.log.Warn("script generation failed", "index", i, "script_id", failure.ScriptID, "error", err)
			continue
		}

		scripts = append(scripts, GeneratedScript{
			ScriptID:    activity.ScriptID(),
			Activity:    activity,
			Script:      script,
			GeneratedAt: r.engine.now(),
		})
	}
	r.result.Scripts = scripts

	if len(scripts) > 0 {
		inputs := make([]db.ScriptInput, len(scripts))
		for i, s := range scripts {
			inputs[i] = db.ScriptInput{
				ScriptID:   s.ScriptID,
				Activity:   s.Activity,
				Content:    s.Script,
				ScriptType: s.Activity.TypeActivite,
			}
		}
		r.persist(ctx, "scripts", func(s Store) error {
			return s.SaveScripts(ctx, r.result.SessionID, inputs)
		})
	}
	r.dump("scripts", scriptsByID(scripts))

	r.logf("✅ %d scripts generated", len(scripts))
	r.progress(StageScript, fmt.Sprintf("Wrote %d scripts", len(scripts)), nil)
	return nil
}

// generateScript calls the script agent, recovering a panic as an item error.
func (r *run) generateScript(ctx context.Context, activity types.ActivityDescriptor) (script any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()
	return r.set.Scripts.Generate(ctx, activity, activity.TypeActivite)
}

func (r *run) finalize(ctx context.Context) error {
	r.logf("🎉 Finalizing...")
	r.progress(StageFinalize, "Finalizing", nil)

	res := r.result
	res.EndTime = r.engine.now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	res.Statistics = stats.Compute(res.Analysis, res.Activities, len(res.Scripts), res.DocumentsProcessed)
	r.persist(ctx, "statistics", func(s Store) error {
		return s.SaveStatistics(ctx, res.SessionID, res.Statistics)
	})

	r.logf("🎯 Workflow finished!")
	res.Output = buildOutput(res, r.input)
	r.dump("final_results", res.Output)

	r.progress(StageFinalize, "Workflow finished", res.Statistics)
	return nil
}

// terminate writes the terminal session update. It runs once per session.
func (r *run) terminate(ctx context.Context) {
	if r.terminated {
		return
	}
	r.terminated = true

	if err := r.set.Close(); err != nil {
		r.log.Warn("failed to release agents", "error", err)
	}

	res := r.result
	if res.EndTime.IsZero() || res.Failed() {
		res.EndTime = r.engine.now()
		res.Duration = res.EndTime.Sub(res.StartTime)
	}

	status := string(res.Status)
	endTime := res.EndTime
	duration := res.Duration.Seconds()
	patch := db.SessionPatch{
		Status:          &status,
		EndTime:         &endTime,
		DurationSeconds: &duration,
		ExecutionLog:    append([]string(nil), res.ExecutionLog...),
	}
	if res.ErrorMessage != "" {
		msg := res.ErrorMessage
		patch.ErrorMessage = &msg
	}
	// The terminal row is written even when ctx was cancelled mid-run.
	ctx = context.WithoutCancel(ctx)
	r.persist(ctx, "terminal status", func(s Store) error {
		return s.UpdateSession(ctx, res.SessionID, patch)
	})

	if res.Failed() {
		r.log.Warn("workflow failed", "error", res.ErrorMessage, "duration", res.Duration)
	} else {
		r.log.Info("workflow completed",
			"duration", res.Duration,
			"activities", len(res.Activities),
			"scripts", len(res.Scripts))
	}
}

// persist runs a store write. Store failures are logged and never change the
// outcome of the run.
func (r *run) persist(ctx context.Context, what string, write func(Store) error) {
	if r.engine.store == nil || r.foreign {
		return
	}
	if err := write(r.engine.store); err != nil {
		r.log.Error("failed to persist "+what, "error", err)
	}
}

// logf appends a timestamped line to the execution log.
func (r *run) logf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", r.engine.now().Format("15:04:05"), fmt.Sprintf(format, args...))
	r.result.ExecutionLog = append(r.result.ExecutionLog, line)
	r.log.Debug(line)
}

func (r *run) progress(stage Stage, message string, content any) {
	if cb := r.engine.cfg.OnProgress; cb != nil {
		cb(ProgressEvent{SessionID: r.result.SessionID, Stage: stage, Message: message, Content: content})
	}
}

// dump writes v to the output directory as {prefix}_{id[:8]}.json.
func (r *run) dump(prefix string, v any) {
	dir := r.engine.cfg.OutputDir
	if dir == "" {
		return
	}

	id := r.result.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, id))

	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		if err = os.MkdirAll(dir, 0755); err == nil {
			err = os.WriteFile(path, data, 0644)
		}
	}
	if err != nil {
		r.log.Warn("failed to write stage output", "path", path, "error", err)
		return
	}
	r.log.Debug("wrote stage output", "path", path)
}
