package stats

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/course-designer/internal/db"
	"github.com/jonathan/course-designer/internal/types"
)

type fakeStore struct {
	total, completed, failed int64
	avg                      float64
	activities, withActs     int64
	typeDist                 map[string]int64
	err                      error
	countCalls               atomic.Int32
}

func (f *fakeStore) SessionCounts(context.Context) (db.SessionCounts, error) {
	f.countCalls.Add(1)
	return db.SessionCounts{Total: f.total, Completed: f.completed, Failed: f.failed, AvgDurationSeconds: f.avg}, f.err
}

func (f *fakeStore) CountActivities(context.Context) (int64, error) { return f.activities, nil }
func (f *fakeStore) CountSessionsWithActivities(context.Context) (int64, error) {
	return f.withActs, nil
}
func (f *fakeStore) ActivityTypeDistribution(context.Context) (map[string]int64, error) {
	return f.typeDist, nil
}

func TestSummary(t *testing.T) {
	store := &fakeStore{
		total: 4, completed: 2, failed: 1, avg: 12.5,
		activities: 7, withActs: 2,
		typeDist: map[string]int64{"text": 5, "quiz": 2},
	}

	summary, err := NewService(store).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.Sessions.Total)
	assert.Equal(t, int64(2), summary.Sessions.Completed)
	assert.Equal(t, int64(1), summary.Sessions.Failed)
	assert.Equal(t, 12.5, summary.Sessions.AvgDurationSeconds)
	assert.Equal(t, 50.0, summary.Sessions.SuccessRate)
	assert.Equal(t, int64(7), summary.Activities.Total)
	assert.Equal(t, int64(2), summary.Activities.SessionsWithActivities)
	assert.Equal(t, map[string]int64{"text": 5, "quiz": 2}, summary.Distributions.ActivityTypes)
	assert.LessOrEqual(t, summary.Sessions.Completed+summary.Sessions.Failed, summary.Sessions.Total)
}

func TestSummary_SessionFiguresShareOneRead(t *testing.T) {
	store := &fakeStore{total: 3, completed: 2, failed: 1}

	summary, err := NewService(store).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), store.countCalls.Load())
	assert.Equal(t, summary.Sessions.Total, summary.Sessions.Completed+summary.Sessions.Failed)
}

func TestSummary_EmptyStore(t *testing.T) {
	summary, err := NewService(&fakeStore{}).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.Sessions.AvgDurationSeconds)
	assert.Equal(t, 0.0, summary.Sessions.SuccessRate)
	assert.NotNil(t, summary.Distributions.ActivityTypes)
}

func TestSummary_StoreError(t *testing.T) {
	_, err := NewService(&fakeStore{err: errors.New("db down")}).Summary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCompute(t *testing.T) {
	analysis := &types.Analysis{Objectives: []any{"a", "b", "c"}}
	activities := []types.ActivityDescriptor{
		{TypeActivite: "text", NiveauBloom: "Comprendre", Difficulte: "facile"},
		{TypeActivite: "quiz", NiveauBloom: "Appliquer", Difficulte: "facile"},
		{TypeActivite: "text", NiveauBloom: "Comprendre", Difficulte: "moyen"},
	}

	got := Compute(analysis, activities, 2, 1)

	assert.Equal(t, 3, got.TotalObjectives)
	assert.Equal(t, 3, got.TotalActivities)
	assert.Equal(t, 2, got.TotalScripts)
	assert.Equal(t, 1, got.TotalDocumentsProcessed)
	assert.Equal(t, map[string]int{"Comprendre": 2, "Appliquer": 1}, got.BloomDistribution)
	assert.Equal(t, map[string]int{"facile": 2, "moyen": 1}, got.DifficultyDistribution)
	assert.Equal(t, map[string]int{"text": 2, "quiz": 1}, got.ActivityTypesDistribution)
}

func TestCompute_NilAnalysis(t *testing.T) {
	got := Compute(nil, nil, 0, 0)
	assert.Equal(t, 0, got.TotalObjectives)
	assert.Empty(t, got.BloomDistribution)
}
