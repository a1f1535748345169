package types

// Analysis is the structured output of the objective-analysis agent.
// Nested documents are kept opaque.
type Analysis struct {
	Objectives           []any          `json:"objectives"`
	ContentAnalysis      map[string]any `json:"content_analysis,omitempty"`
	Classification       map[string]any `json:"classification,omitempty"`
	FormattedObjectives  map[string]any `json:"formatted_objectives,omitempty"`
	DifficultyEvaluation map[string]any `json:"difficulty_evaluation,omitempty"`
	Recommendations      map[string]any `json:"recommendations,omitempty"`
	Feedback             map[string]any `json:"feedback,omitempty"`
	Stats                map[string]any `json:"stats,omitempty"`
}

// ObjectiveCount returns the number of extracted objectives, 0 for a nil analysis.
func (a *Analysis) ObjectiveCount() int {
	if a == nil {
		return 0
	}
	return len(a.Objectives)
}
