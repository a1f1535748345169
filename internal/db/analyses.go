package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/course-designer/internal/types"
)

// SaveAnalysis stores the objective analysis of a session. A session has at
// most one analysis and it is never rewritten: a second save fails with
// ErrDuplicate wrapped in a *StoreError.
func (db *DB) SaveAnalysis(ctx context.Context, sessionID string, analysis *types.Analysis) error {
	if analysis == nil {
		analysis = &types.Analysis{}
	}

	cols := []struct {
		v        any
		fallback string
	}{
		{analysis.Objectives, "[]"},
		{analysis.ContentAnalysis, "{}"},
		{analysis.Classification, "{}"},
		{analysis.FormattedObjectives, "{}"},
		{analysis.DifficultyEvaluation, "{}"},
		{analysis.Recommendations, "{}"},
		{analysis.Feedback, "{}"},
		{analysis.Stats, "{}"},
	}
	params := make([]interface{}, 0, len(cols)+1)
	params = append(params, sessionID)
	for _, c := range cols {
		b, err := marshalJSON(c.v, c.fallback)
		if err != nil {
			return &StoreError{Op: "save_analysis", SessionID: sessionID, Err: err}
		}
		params = append(params, b)
	}

	return db.withTx(ctx, "save_analysis", sessionID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO agent_analyses (session_id, objectives, content_analysis, classification,
			     formatted_objectives, difficulty_evaluation, recommendations, feedback, statistics)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			params...,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analysis: %w", err)
		}
		return nil
	})
}

// GetAnalysis retrieves the analysis of a session. Returns nil, nil when absent.
func (db *DB) GetAnalysis(ctx context.Context, sessionID string) (*AnalysisRecord, error) {
	var a AnalysisRecord
	var objectives, contentAnalysis, classification, formatted, difficulty, recommendations, feedback, stats []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, session_id, objectives, content_analysis, classification, formatted_objectives,
		        difficulty_evaluation, recommendations, feedback, statistics, created_at
		 FROM agent_analyses
		 WHERE session_id = $1`,
		sessionID,
	).Scan(&a.ID, &a.SessionID, &objectives, &contentAnalysis, &classification, &formatted,
		&difficulty, &recommendations, &feedback, &stats, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	db.decodeJSON("agent_analyses.objectives", sessionID, objectives, &a.Objectives)
	db.decodeJSON("agent_analyses.content_analysis", sessionID, contentAnalysis, &a.ContentAnalysis)
	db.decodeJSON("agent_analyses.classification", sessionID, classification, &a.Classification)
	db.decodeJSON("agent_analyses.formatted_objectives", sessionID, formatted, &a.FormattedObjectives)
	db.decodeJSON("agent_analyses.difficulty_evaluation", sessionID, difficulty, &a.DifficultyEvaluation)
	db.decodeJSON("agent_analyses.recommendations", sessionID, recommendations, &a.Recommendations)
	db.decodeJSON("agent_analyses.feedback", sessionID, feedback, &a.Feedback)
	db.decodeJSON("agent_analyses.statistics", sessionID, stats, &a.Statistics)

	return &a, nil
}
