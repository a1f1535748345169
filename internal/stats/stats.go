// Package stats computes workflow statistics: global aggregates over the
// store and per-session distributions at finalization.
package stats

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/course-designer/internal/db"
	"github.com/jonathan/course-designer/internal/types"
)

// Store provides the aggregate queries the summary is built from.
type Store interface {
	SessionCounts(ctx context.Context) (db.SessionCounts, error)
	CountActivities(ctx context.Context) (int64, error)
	CountSessionsWithActivities(ctx context.Context) (int64, error)
	ActivityTypeDistribution(ctx context.Context) (map[string]int64, error)
}

// SessionStats aggregates session rows.
type SessionStats struct {
	Total              int64   `json:"total"`
	Completed          int64   `json:"completed"`
	Failed             int64   `json:"failed"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
	SuccessRate        float64 `json:"success_rate"`
}

// ActivityStats aggregates activity rows.
type ActivityStats struct {
	Total                  int64 `json:"total"`
	SessionsWithActivities int64 `json:"sessions_with_activities"`
}

// Distributions holds count-by-category maps.
type Distributions struct {
	ActivityTypes map[string]int64 `json:"activity_types"`
}

// Summary is the global statistics document.
type Summary struct {
	Sessions      SessionStats  `json:"sessions"`
	Activities    ActivityStats `json:"activities"`
	Distributions Distributions `json:"distributions"`
}

// Service computes statistics from a store. It holds no cached state.
type Service struct {
	store Store
}

// NewService creates a statistics service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Summary computes point-in-time aggregates. Session figures come from a
// single query; the activity queries run beside it and the first failure
// cancels the rest.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.store.SessionCounts(gCtx)
		out.Sessions = SessionStats{
			Total:              c.Total,
			Completed:          c.Completed,
			Failed:             c.Failed,
			AvgDurationSeconds: c.AvgDurationSeconds,
		}
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountActivities(gCtx)
		out.Activities.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountSessionsWithActivities(gCtx)
		out.Activities.SessionsWithActivities = n
		return err
	})
	g.Go(func() error {
		dist, err := s.store.ActivityTypeDistribution(gCtx)
		out.Distributions.ActivityTypes = dist
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	if out.Distributions.ActivityTypes == nil {
		out.Distributions.ActivityTypes = map[string]int64{}
	}
	if out.Sessions.Total > 0 {
		out.Sessions.SuccessRate = float64(out.Sessions.Completed) / float64(out.Sessions.Total) * 100
	}
	return &out, nil
}

// Compute builds the statistics row of one session from its stage outputs.
func Compute(analysis *types.Analysis, activities []types.ActivityDescriptor, scriptCount, documentsProcessed int) *db.WorkflowStatistics {
	out := &db.WorkflowStatistics{
		TotalObjectives:           analysis.ObjectiveCount(),
		TotalActivities:           len(activities),
		TotalScripts:              scriptCount,
		TotalDocumentsProcessed:   documentsProcessed,
		BloomDistribution:         map[string]int{},
		DifficultyDistribution:    map[string]int{},
		ActivityTypesDistribution: map[string]int{},
	}
	for _, a := range activities {
		out.BloomDistribution[a.NiveauBloom]++
		out.DifficultyDistribution[a.Difficulte]++
		out.ActivityTypesDistribution[a.TypeActivite]++
	}
	return out
}
