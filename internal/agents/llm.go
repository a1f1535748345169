package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/course-designer/internal/llm"
	"github.com/jonathan/course-designer/internal/logger"
	"github.com/jonathan/course-designer/internal/prompts"
	"github.com/jonathan/course-designer/internal/schemas"
	"github.com/jonathan/course-designer/internal/types"
)

// Temperatures used by the LLM agents.
type Temperatures struct {
	Analysis  float32
	Sequencer float32
}

// LLMFactory builds agents backed by an llm.Client.
type LLMFactory struct {
	Config       *llm.Config
	Temperatures Temperatures
	Log          *logger.Logger

	// newClient is replaced in tests.
	newClient func(ctx context.Context, cfg *llm.Config, apiKey string) (llm.Client, error)
}

// NewLLMFactory creates a factory for Gemini-backed agents.
func NewLLMFactory(cfg *llm.Config, temps Temperatures, log *logger.Logger) *LLMFactory {
	if cfg == nil {
		cfg = llm.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &LLMFactory{Config: cfg, Temperatures: temps, Log: log, newClient: llm.NewClient}
}

// Build creates one client shared by the three agents.
func (f *LLMFactory) Build(ctx context.Context, creds Credentials) (*Set, error) {
	if creds.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := f.newClient(ctx, f.Config, creds.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	f.Log.Debug("built LLM agents",
		"analysis_model", client.GetModel(llm.TierStandard),
		"sequencer_model", client.GetModel(llm.TierAdvanced))

	return NewSet(
		&LLMAnalyzer{client: client, temperature: f.Temperatures.Analysis},
		&LLMSequencer{client: client, temperature: f.Temperatures.Sequencer},
		&LLMScriptGenerator{client: client},
		client,
	), nil
}

// LLMAnalyzer implements Analyzer.
type LLMAnalyzer struct {
	client      llm.Client
	temperature float32
}

// NewLLMAnalyzer creates an Analyzer over client.
func NewLLMAnalyzer(client llm.Client, temperature float32) *LLMAnalyzer {
	return &LLMAnalyzer{client: client, temperature: temperature}
}

// Analyze extracts and classifies learning objectives from brief.
func (a *LLMAnalyzer) Analyze(ctx context.Context, brief string) (*types.Analysis, error) {
	if strings.TrimSpace(brief) == "" {
		return nil, errors.New("brief is empty")
	}

	prompt, err := prompts.Render(prompts.Agents, "analyze-objectives", map[string]string{"Brief": brief})
	if err != nil {
		return nil, err
	}

	resp, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard, temperatureOpts(a.temperature)...)
	if err != nil {
		return nil, fmt.Errorf("objective analysis failed: %w", err)
	}

	if err := schemas.Validate(schemas.Analysis, resp); err != nil {
		return nil, fmt.Errorf("invalid analysis: %w", err)
	}

	var analysis types.Analysis
	if err := json.Unmarshal([]byte(resp), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &analysis, nil
}

// LLMSequencer implements Sequencer.
type LLMSequencer struct {
	client      llm.Client
	temperature float32
}

// NewLLMSequencer creates a Sequencer over client.
func NewLLMSequencer(client llm.Client, temperature float32) *LLMSequencer {
	return &LLMSequencer{client: client, temperature: temperature}
}

// Sequence plans the course screens. An empty plan is returned as-is; the
// caller decides whether that is an error.
func (s *LLMSequencer) Sequence(ctx context.Context, analysis *types.Analysis) ([]types.ActivityDescriptor, error) {
	if analysis == nil {
		return nil, errors.New("analysis results are missing")
	}

	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	prompt, err := prompts.Render(prompts.Agents, "sequence-activities", map[string]string{"Analysis": string(analysisJSON)})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.GenerateJSON(ctx, prompt, llm.TierAdvanced, temperatureOpts(s.temperature)...)
	if err != nil {
		return nil, fmt.Errorf("sequencing failed: %w", err)
	}

	list, err := activityList(resp)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(schemas.Sequence, list); err != nil {
		return nil, fmt.Errorf("invalid sequence: %w", err)
	}

	var activities []types.ActivityDescriptor
	if err := json.Unmarshal([]byte(list), &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}

// activityList accepts either a bare array or an object wrapping the array
// under a well-known key.
func activityList(resp string) (string, error) {
	trimmed := strings.TrimSpace(resp)
	if strings.HasPrefix(trimmed, "[") {
		return trimmed, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return "", fmt.Errorf("failed to decode sequence: %w", err)
	}
	for _, key := range []string{"activities", "sequencer", "ecrans", "screens"} {
		if raw, ok := wrapper[key]; ok {
			return string(raw), nil
		}
	}
	return "", errors.New("sequence response has no activity list")
}

// LLMScriptGenerator implements ScriptGenerator.
type LLMScriptGenerator struct {
	client llm.Client
}

// NewLLMScriptGenerator creates a ScriptGenerator over client.
func NewLLMScriptGenerator(client llm.Client) *LLMScriptGenerator {
	return &LLMScriptGenerator{client: client}
}

// Generate writes the script for activity. Quizzes are structured
// documents; every other type is free text.
func (g *LLMScriptGenerator) Generate(ctx context.Context, activity types.ActivityDescriptor, activityType string) (any, error) {
	if activityType == "" {
		activityType = types.DefaultActivityType
	}

	activityJSON, err := json.MarshalIndent(activity, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity: %w", err)
	}
	data := map[string]string{"Activity": string(activityJSON), "ActivityType": activityType}

	switch activityType {
	case "quiz":
		prompt, err := prompts.Render(prompts.Agents, "script-quiz", data)
		if err != nil {
			return nil, err
		}
		resp, err := g.client.GenerateJSON(ctx, prompt, llm.TierLite)
		if err != nil {
			return nil, fmt.Errorf("quiz generation failed: %w", err)
		}
		if err := schemas.Validate(schemas.Quiz, resp); err != nil {
			return nil, fmt.Errorf("invalid quiz: %w", err)
		}
		var quiz map[string]any
		if err := json.Unmarshal([]byte(resp), &quiz); err != nil {
			return nil, fmt.Errorf("failed to decode quiz: %w", err)
		}
		return quiz, nil

	case "text":
		return g.text(ctx, "script-text", data)

	default:
		return g.text(ctx, "script-default", data)
	}
}

func (g *LLMScriptGenerator) text(ctx context.Context, key string, data map[string]string) (any, error) {
	prompt, err := prompts.Render(prompts.Agents, key, data)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}
	script := strings.TrimSpace(resp)
	if script == "" {
		return nil, errors.New("script generation returned empty text")
	}
	return script, nil
}

func temperatureOpts(t float32) []llm.CallOption {
	if t <= 0 {
		return nil
	}
	return []llm.CallOption{llm.WithTemperature(t)}
}
