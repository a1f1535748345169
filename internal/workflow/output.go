package workflow

import (
	"time"

	"github.com/jonathan/course-designer/internal/types"
)

// Output is the aggregate document assembled at finalization.
type Output struct {
	WorkflowMetadata OutputMetadata             `json:"workflow_metadata"`
	UserInput        map[string]any             `json:"user_input"`
	AgentAnalysis    *types.Analysis            `json:"agent_analysis"`
	SequencerData    []types.ActivityDescriptor `json:"sequencer_data"`
	ScriptsData      map[string]ScriptEntry     `json:"scripts_data"`
	ExecutionLog     []string                   `json:"execution_log"`
	Statistics       OutputStatistics           `json:"statistics"`
}

// OutputMetadata describes the run.
type OutputMetadata struct {
	SessionID       string    `json:"session_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	TotalSteps      int       `json:"total_steps"`
	Status          Status    `json:"status"`
}

// ScriptEntry is one generated script keyed by script id in the output.
type ScriptEntry struct {
	Activite    types.ActivityDescriptor `json:"activite"`
	Script      any                      `json:"script"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// OutputStatistics counts what each stage produced.
type OutputStatistics struct {
	ObjectivesAnalyzed  int `json:"objectives_analyzed"`
	ActivitiesGenerated int `json:"activities_generated"`
	ScriptsGenerated    int `json:"scripts_generated"`
	DocumentsProcessed  int `json:"documents_processed"`
}

func scriptsByID(scripts []GeneratedScript) map[string]ScriptEntry {
	m := make(map[string]ScriptEntry, len(scripts))
	for _, s := range scripts {
		m[s.ScriptID] = ScriptEntry{Activite: s.Activity, Script: s.Script, GeneratedAt: s.GeneratedAt}
	}
	return m
}

// buildOutput is called at the end of finalization, once every stage succeeded.
func buildOutput(res *Result, input types.UserInput) *Output {
	scripts := scriptsByID(res.Scripts)
	return &Output{
		WorkflowMetadata: OutputMetadata{
			SessionID:       res.SessionID,
			StartTime:       res.StartTime,
			EndTime:         res.EndTime,
			DurationSeconds: res.Duration.Seconds(),
			TotalSteps:      len(Stages),
			Status:          StatusCompleted,
		},
		UserInput:     input.ToMap(),
		AgentAnalysis: res.Analysis,
		SequencerData: res.Activities,
		ScriptsData:   scripts,
		ExecutionLog:  append([]string(nil), res.ExecutionLog...),
		Statistics: OutputStatistics{
			ObjectivesAnalyzed:  res.Analysis.ObjectiveCount(),
			ActivitiesGenerated: len(res.Activities),
			ScriptsGenerated:    len(scripts),
			DocumentsProcessed:  res.DocumentsProcessed,
		},
	}
}
