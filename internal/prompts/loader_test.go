package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(Agents, "analyze-objectives")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Brief}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(Agents, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	result := Format("Sujet : {{.Subject}} pour {{.Audience}}", map[string]string{
		"Subject":  "ERP",
		"Audience": "débutants",
	})
	assert.Equal(t, "Sujet : ERP pour débutants", result)

	// Placeholder remains when no value is given
	assert.Equal(t, "Hello {{.Name}}", Format("Hello {{.Name}}", nil))
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render(Agents, "script-default", map[string]string{
		"Activity":     `{"titre_ecran": "Intro"}`,
		"ActivityType": "exercise",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "exercise")
	assert.Contains(t, out, "Intro")
	assert.NotContains(t, out, "{{.")
}

func TestRender_MissingPlaceholder(t *testing.T) {
	ClearCache()

	_, err := Render(Agents, "script-default", map[string]string{"Activity": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{.ActivityType}}")
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(Agents)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"analyze-objectives",
		"script-default",
		"script-quiz",
		"script-text",
		"sequence-activities",
	}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	prompt1, err := Get(Agents, "sequence-activities")
	require.NoError(t, err)
	prompt2, err := Get(Agents, "sequence-activities")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
