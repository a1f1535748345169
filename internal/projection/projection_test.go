package projection

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/course-designer/internal/db"
)

type fakeReader struct {
	sessions   map[string]*db.Session
	activities map[string][]db.Activity
	scripts    map[string][]db.Script
	err        error
}

func (f *fakeReader) GetSession(_ context.Context, id string) (*db.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[id], nil
}

func (f *fakeReader) ListActivities(_ context.Context, id string) ([]db.Activity, error) {
	return f.activities[id], nil
}

func (f *fakeReader) ListScripts(_ context.Context, id string) ([]db.Script, error) {
	return f.scripts[id], nil
}

func newTestProjector(r Reader) *Projector {
	p := NewProjector(r, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestActivityID(t *testing.T) {
	assert.Equal(t, "01-Intro-to-ERP_text", ActivityID("01", "Intro to ERP", "text"))
	assert.Equal(t, "02-_quiz", ActivityID("02", "", "quiz"))
}

func TestParseScript(t *testing.T) {
	assert.Equal(t, "", ParseScript(""))
	assert.Equal(t, "Hello", ParseScript("Hello"))
	assert.Equal(t, map[string]any{"question": "Q1"}, ParseScript(`{"question":"Q1"}`))
	assert.Equal(t, "{not json", ParseScript("{not json"))
}

func TestProject_ScenarioSingleActivity(t *testing.T) {
	activities := []db.Activity{{NumEcran: "01", TitreEcran: "Intro to ERP", TypeActivite: "text"}}
	scripts := []db.Script{{ScriptType: "text", Content: "Hello"}}

	content := Project(activities, scripts)

	require.Len(t, content, 1)
	entry, ok := content.Get("01-Intro-to-ERP_text")
	require.True(t, ok)
	assert.Equal(t, "Hello", entry.Script)
	assert.Equal(t, "Intro to ERP", entry.Activite.TitreEcran)

	b, err := json.Marshal(content)
	require.NoError(t, err)
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "Hello", decoded["01-Intro-to-ERP_text"]["script"])
}

func TestProject_FirstScriptOfTypeWins(t *testing.T) {
	activities := []db.Activity{
		{NumEcran: "01", TitreEcran: "A", TypeActivite: "quiz"},
		{NumEcran: "02", TitreEcran: "B", TypeActivite: "quiz"},
	}
	scripts := []db.Script{
		{ID: 1, ScriptType: "quiz", Content: "first"},
		{ID: 2, ScriptType: "quiz", Content: "second"},
	}

	content := Project(activities, scripts)

	require.Len(t, content, 2)
	assert.Equal(t, "first", content[0].Script)
	assert.Equal(t, "first", content[1].Script)
}

func TestProject_MissingScriptTolerated(t *testing.T) {
	activities := []db.Activity{
		{NumEcran: "01", TitreEcran: "A", TypeActivite: "text"},
		{NumEcran: "02", TitreEcran: "B", TypeActivite: "video"},
	}
	scripts := []db.Script{{ScriptType: "text", Content: "Hello"}}

	content := Project(activities, scripts)

	require.Len(t, content, 2)
	entry, ok := content.Get("02-B_video")
	require.True(t, ok)
	assert.Equal(t, "", entry.Script)
}

func TestProject_KeysFollowScreenOrder(t *testing.T) {
	activities := []db.Activity{
		{NumEcran: "01", TitreEcran: "Zeta", TypeActivite: "text"},
		{NumEcran: "02", TitreEcran: "Alpha", TypeActivite: "text"},
		{NumEcran: "03", TitreEcran: "Mid", TypeActivite: "text"},
	}

	content := Project(activities, nil)
	assert.Equal(t, []string{"01-Zeta_text", "02-Alpha_text", "03-Mid_text"}, content.Keys())

	b, err := json.Marshal(content)
	require.NoError(t, err)
	s := string(b)
	assert.Less(t, strings.Index(s, "01-Zeta_text"), strings.Index(s, "02-Alpha_text"))
	assert.Less(t, strings.Index(s, "02-Alpha_text"), strings.Index(s, "03-Mid_text"))
}

func TestProject_DuplicateIDsCollapse(t *testing.T) {
	activities := []db.Activity{
		{NumEcran: "01", TitreEcran: "Same", TypeActivite: "text", SousTitre: "first"},
		{NumEcran: "01", TitreEcran: "Same", TypeActivite: "text", SousTitre: "second"},
		{NumEcran: "02", TitreEcran: "Other", TypeActivite: "text"},
	}

	content := Project(activities, nil)

	require.Len(t, content, 2)
	assert.Equal(t, "second", content[0].Activite.SousTitre)
	assert.Equal(t, "02-Other_text", content[1].ID)
}

func TestContent_MarshalEmpty(t *testing.T) {
	b, err := json.Marshal(Content(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestProjector_NotFound(t *testing.T) {
	p := newTestProjector(&fakeReader{})

	_, err := p.Project(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = p.ProjectFlat(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProjector_NoActivitiesIsNotFound(t *testing.T) {
	r := &fakeReader{sessions: map[string]*db.Session{"s1": {SessionID: "s1", Status: db.StatusFailed}}}
	p := newTestProjector(r)

	_, err := p.Project(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoActivities))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProjector_StoreErrorIsNotNotFound(t *testing.T) {
	p := newTestProjector(&fakeReader{err: errors.New("connection refused")})

	_, err := p.Project(context.Background(), "s1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestProjector_DeterministicAndFlatMatches(t *testing.T) {
	r := &fakeReader{
		sessions: map[string]*db.Session{"s1": {SessionID: "s1", Status: db.StatusCompleted}},
		activities: map[string][]db.Activity{"s1": {
			{NumEcran: "01", TitreEcran: "Intro", TypeActivite: "text"},
			{NumEcran: "02", TitreEcran: "Check", TypeActivite: "quiz"},
		}},
		scripts: map[string][]db.Script{"s1": {
			{ScriptType: "quiz", Content: `{"questions":[1,2]}`},
			{ScriptType: "text", Content: "Hello"},
		}},
	}
	p := newTestProjector(r)
	ctx := context.Background()

	first, err := p.Project(ctx, "s1")
	require.NoError(t, err)
	second, err := p.Project(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, "s1", first.SessionID)
	assert.Equal(t, db.StatusCompleted, first.SessionStatus)
	assert.Equal(t, 2, first.Metadata.TotalActivities)

	flat, err := p.ProjectFlat(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first.Content, flat)

	flatJSON, err := json.Marshal(flat)
	require.NoError(t, err)
	contentJSON, err := json.Marshal(first.Content)
	require.NoError(t, err)
	assert.JSONEq(t, string(contentJSON), string(flatJSON))
}
