package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/course-designer/internal/llm"
	"github.com/jonathan/course-designer/internal/types"
)

type call struct {
	prompt      string
	tier        llm.ModelTier
	json        bool
	temperature *float32
}

type fakeClient struct {
	jsonResp string
	textResp string
	err      error
	calls    []call
	closed   bool
}

func (f *fakeClient) record(prompt string, tier llm.ModelTier, isJSON bool, opts []llm.CallOption) {
	var o llm.CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	f.calls = append(f.calls, call{prompt: prompt, tier: tier, json: isJSON, temperature: o.Temperature})
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier, opts ...llm.CallOption) (string, error) {
	f.record(prompt, tier, false, opts)
	return f.textResp, f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier, opts ...llm.CallOption) (string, error) {
	f.record(prompt, tier, true, opts)
	return f.jsonResp, f.err
}

func (f *fakeClient) GetModel(tier llm.ModelTier) string { return string(tier) }

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestLLMFactory_MissingAPIKey(t *testing.T) {
	f := NewLLMFactory(nil, Temperatures{}, nil)

	_, err := f.Build(context.Background(), Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestLLMFactory_BuildSharesClient(t *testing.T) {
	client := &fakeClient{}
	f := NewLLMFactory(nil, Temperatures{Analysis: 0.2, Sequencer: 0.7}, nil)
	f.newClient = func(context.Context, *llm.Config, string) (llm.Client, error) { return client, nil }

	set, err := f.Build(context.Background(), Credentials{APIKey: "key"})
	require.NoError(t, err)
	require.NoError(t, set.Validate())

	require.NoError(t, set.Close())
	assert.True(t, client.closed)
}

func TestLLMFactory_ClientError(t *testing.T) {
	f := NewLLMFactory(nil, Temperatures{}, nil)
	f.newClient = func(context.Context, *llm.Config, string) (llm.Client, error) {
		return nil, errors.New("quota exceeded")
	}

	_, err := f.Build(context.Background(), Credentials{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSet_Validate(t *testing.T) {
	var nilSet *Set
	assert.Error(t, nilSet.Validate())
	assert.NoError(t, nilSet.Close())
	assert.Error(t, (&Set{}).Validate())
}

func TestLLMAnalyzer_Analyze(t *testing.T) {
	client := &fakeClient{jsonResp: `{"objectives": ["Identifier les modules d'un ERP"], "classification": {"0": "Comprendre"}}`}
	a := NewLLMAnalyzer(client, 0.2)

	analysis, err := a.Analyze(context.Background(), "# INFORMATIONS SUR LE COURS\n## Sujet Principal\nERP")
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.ObjectiveCount())
	assert.Equal(t, "Comprendre", analysis.Classification["0"])

	require.Len(t, client.calls, 1)
	assert.Equal(t, llm.TierStandard, client.calls[0].tier)
	assert.True(t, client.calls[0].json)
	require.NotNil(t, client.calls[0].temperature)
	assert.Equal(t, float32(0.2), *client.calls[0].temperature)
	assert.Contains(t, client.calls[0].prompt, "Sujet Principal")
}

func TestLLMAnalyzer_InvalidOutput(t *testing.T) {
	a := NewLLMAnalyzer(&fakeClient{jsonResp: `{"feedback": {}}`}, 0)

	_, err := a.Analyze(context.Background(), "brief")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid analysis")
}

func TestLLMAnalyzer_EmptyBrief(t *testing.T) {
	_, err := NewLLMAnalyzer(&fakeClient{}, 0).Analyze(context.Background(), "  ")
	assert.Error(t, err)
}

func TestLLMSequencer_Sequence(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"bare array", `[{"num_ecran": "01", "titre_ecran": "Intro to ERP", "type_activite": "text", "duree_estimee": 10}]`},
		{"wrapped", `{"activities": [{"num_ecran": "01", "titre_ecran": "Intro to ERP", "type_activite": "text"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{jsonResp: tt.resp}
			s := NewLLMSequencer(client, 0.7)

			activities, err := s.Sequence(context.Background(), &types.Analysis{Objectives: []any{"a"}})
			require.NoError(t, err)
			require.Len(t, activities, 1)
			assert.Equal(t, "Intro to ERP", activities[0].TitreEcran)

			assert.Equal(t, llm.TierAdvanced, client.calls[0].tier)
			assert.Equal(t, float32(0.7), *client.calls[0].temperature)
		})
	}
}

func TestLLMSequencer_EmptyPlan(t *testing.T) {
	activities, err := NewLLMSequencer(&fakeClient{jsonResp: `[]`}, 0).Sequence(context.Background(), &types.Analysis{})
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestLLMSequencer_Errors(t *testing.T) {
	_, err := NewLLMSequencer(&fakeClient{}, 0).Sequence(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewLLMSequencer(&fakeClient{jsonResp: `{"other": []}`}, 0).Sequence(context.Background(), &types.Analysis{})
	assert.Error(t, err)

	_, err = NewLLMSequencer(&fakeClient{jsonResp: `[{"duree_estimee": "dix"}]`}, 0).Sequence(context.Background(), &types.Analysis{})
	assert.Error(t, err)

	_, err = NewLLMSequencer(&fakeClient{err: errors.New("timeout")}, 0).Sequence(context.Background(), &types.Analysis{})
	assert.Error(t, err)
}

func TestLLMScriptGenerator_Text(t *testing.T) {
	client := &fakeClient{textResp: "  Bonjour et bienvenue.  "}
	g := NewLLMScriptGenerator(client)

	script, err := g.Generate(context.Background(), types.ActivityDescriptor{TitreEcran: "Intro"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour et bienvenue.", script)
	assert.False(t, client.calls[0].json)
	assert.Contains(t, client.calls[0].prompt, "script narratif")
}

func TestLLMScriptGenerator_Quiz(t *testing.T) {
	client := &fakeClient{jsonResp: `{"questions": [{"question": "Qu'est-ce qu'un ERP ?", "reponse": "Un progiciel"}]}`}

	script, err := NewLLMScriptGenerator(client).Generate(context.Background(), types.ActivityDescriptor{}, "quiz")
	require.NoError(t, err)

	quiz, ok := script.(map[string]any)
	require.True(t, ok)
	assert.Len(t, quiz["questions"], 1)
	assert.Equal(t, llm.TierLite, client.calls[0].tier)
}

func TestLLMScriptGenerator_OtherType(t *testing.T) {
	client := &fakeClient{textResp: "Étude de cas"}

	script, err := NewLLMScriptGenerator(client).Generate(context.Background(), types.ActivityDescriptor{}, "case_study")
	require.NoError(t, err)
	assert.Equal(t, "Étude de cas", script)
	assert.True(t, strings.Contains(client.calls[0].prompt, `"case_study"`))
}

func TestLLMScriptGenerator_Failures(t *testing.T) {
	_, err := NewLLMScriptGenerator(&fakeClient{textResp: "   "}).Generate(context.Background(), types.ActivityDescriptor{}, "text")
	assert.Error(t, err)

	_, err = NewLLMScriptGenerator(&fakeClient{jsonResp: `{"questions": []}`}).Generate(context.Background(), types.ActivityDescriptor{}, "quiz")
	assert.Error(t, err)
}

func TestFactoryFunc(t *testing.T) {
	want := NewSet(nil, nil, nil, nil)
	f := FactoryFunc(func(context.Context, Credentials) (*Set, error) { return want, nil })

	got, err := f.Build(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Same(t, want, got)
}
