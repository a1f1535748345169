package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/course-designer/internal/types"
)

// -----------------------------------------------------------------------------
// Activity Methods
// -----------------------------------------------------------------------------

// SaveActivities stores the sequenced activities of a session in one batch.
func (db *DB) SaveActivities(ctx context.Context, sessionID string, activities []types.ActivityDescriptor) error {
	if len(activities) == 0 {
		return nil
	}

	return db.withTx(ctx, "save_activities", sessionID, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range activities {
			batch.Queue(
				`INSERT INTO sequencer_activities (session_id, sequence_name, num_ecran, titre_ecran,
				     sous_titre, resume_contenu, type_activite, niveau_bloom, difficulte,
				     duree_estimee, objectif_lie, commentaire)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				sessionID, a.Sequence, a.NumEcran, a.TitreEcran, a.SousTitre, a.ResumeContenu,
				a.TypeActivite, a.NiveauBloom, a.Difficulte, a.DureeEstimee, a.ObjectifLie, a.Commentaire,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range activities {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert activity %d: %w", i, err)
			}
		}
		return results.Close()
	})
}

// ListActivities returns the activities of a session ordered by screen number.
// Rows with the same screen number keep insertion order.
func (db *DB) ListActivities(ctx context.Context, sessionID string) ([]Activity, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, sequence_name, num_ecran, titre_ecran, sous_titre, resume_contenu,
		        type_activite, niveau_bloom, difficulte, duree_estimee, objectif_lie, commentaire, created_at
		 FROM sequencer_activities
		 WHERE session_id = $1
		 ORDER BY num_ecran, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.SessionID, &a.SequenceName, &a.NumEcran, &a.TitreEcran,
			&a.SousTitre, &a.ResumeContenu, &a.TypeActivite, &a.NiveauBloom, &a.Difficulte,
			&a.DureeEstimee, &a.ObjectifLie, &a.Commentaire, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CountActivities returns the number of stored activities across all sessions.
func (db *DB) CountActivities(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sequencer_activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return n, nil
}

// CountSessionsWithActivities returns how many sessions have at least one activity.
func (db *DB) CountSessionsWithActivities(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM sequencer_activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions with activities: %w", err)
	}
	return n, nil
}

// ActivityTypeDistribution returns the number of activities per type_activite.
func (db *DB) ActivityTypeDistribution(ctx context.Context) (map[string]int64, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT type_activite, COUNT(*)
		 FROM sequencer_activities
		 GROUP BY type_activite`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity types: %w", err)
	}
	defer rows.Close()

	dist := map[string]int64{}
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan activity type: %w", err)
		}
		dist[t] = n
	}
	return dist, rows.Err()
}
