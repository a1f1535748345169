package db

import (
	"time"
)

// Session status constants
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// IsTerminalStatus reports whether status ends a session's lifecycle.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Session represents a workflow_sessions record
type Session struct {
	SessionID       string         `json:"session_id"`
	UserInput       map[string]any `json:"user_input"`
	Status          string         `json:"status"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`
	ExecutionLog    []string       `json:"execution_log"`
	ErrorMessage    *string        `json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SessionPatch is a partial update; nil fields are left untouched.
type SessionPatch struct {
	Status          *string
	EndTime         *time.Time
	DurationSeconds *float64
	ExecutionLog    []string
	ErrorMessage    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p SessionPatch) IsEmpty() bool {
	return p.Status == nil && p.EndTime == nil && p.DurationSeconds == nil &&
		p.ExecutionLog == nil && p.ErrorMessage == nil
}

// AnalysisRecord represents an agent_analyses record
type AnalysisRecord struct {
	ID                   int64          `json:"id"`
	SessionID            string         `json:"session_id"`
	Objectives           []any          `json:"objectives"`
	ContentAnalysis      map[string]any `json:"content_analysis"`
	Classification       map[string]any `json:"classification"`
	FormattedObjectives  map[string]any `json:"formatted_objectives"`
	DifficultyEvaluation map[string]any `json:"difficulty_evaluation"`
	Recommendations      map[string]any `json:"recommendations"`
	Feedback             map[string]any `json:"feedback"`
	Statistics           map[string]any `json:"statistics"`
	CreatedAt            time.Time      `json:"created_at"`
}

// Activity represents a sequencer_activities record
type Activity struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	SequenceName  string    `json:"sequence_name"`
	NumEcran      string    `json:"num_ecran"`
	TitreEcran    string    `json:"titre_ecran"`
	SousTitre     string    `json:"sous_titre"`
	ResumeContenu string    `json:"resume_contenu"`
	TypeActivite  string    `json:"type_activite"`
	NiveauBloom   string    `json:"niveau_bloom"`
	Difficulte    string    `json:"difficulte"`
	DureeEstimee  int       `json:"duree_estimee"`
	ObjectifLie   string    `json:"objectif_lie"`
	Commentaire   string    `json:"commentaire"`
	CreatedAt     time.Time `json:"created_at"`
}

// Script represents a generated_scripts record. Content holds either a JSON
// document or raw text, exactly as it was stored.
type Script struct {
	ID           int64          `json:"id"`
	SessionID    string         `json:"session_id"`
	ScriptID     string         `json:"script_id"`
	ActivityData map[string]any `json:"activity_data"`
	Content      string         `json:"script_content"`
	ScriptType   string         `json:"script_type"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ScriptInput is one script to persist.
type ScriptInput struct {
	ScriptID   string
	Activity   any
	Content    any
	ScriptType string
}

// WorkflowStatistics represents a workflow_statistics record
type WorkflowStatistics struct {
	SessionID                 string         `json:"session_id"`
	TotalObjectives           int            `json:"total_objectives"`
	TotalActivities           int            `json:"total_activities"`
	TotalScripts              int            `json:"total_scripts"`
	TotalDocumentsProcessed   int            `json:"total_documents_processed"`
	BloomDistribution         map[string]int `json:"bloom_distribution"`
	DifficultyDistribution    map[string]int `json:"difficulty_distribution"`
	ActivityTypesDistribution map[string]int `json:"activity_types_distribution"`
}
