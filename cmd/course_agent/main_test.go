package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRunFlags restores the run command flags once the test ends.
func resetRunFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		runInputPath, runSubject, runAudience, runObjectives, runSourcePath = "", "", "", "", ""
		runRefURLs = nil
		for _, name := range []string{"input", "subject", "audience", "objectives", "source", "ref-url"} {
			runCommand.Flags().Lookup(name).Changed = false
		}
	})
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "serve", "sessions", "content", "stats", "cleanup", "migrate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestLoadInput_Flags(t *testing.T) {
	resetRunFlags(t)

	source := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(source, []byte("Notes du formateur"), 0644))

	flags := runCommand.Flags()
	require.NoError(t, flags.Set("subject", "ERP Basics"))
	require.NoError(t, flags.Set("audience", "Débutants"))
	require.NoError(t, flags.Set("source", source))
	require.NoError(t, flags.Set("ref-url", "https://example.com/a,https://example.com/b"))

	input, err := loadInput(runCommand)
	require.NoError(t, err)
	assert.Equal(t, "ERP Basics", input.CourseSubject)
	assert.Equal(t, "Débutants", input.TargetAudience)
	assert.Equal(t, "Notes du formateur", input.SourceText)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, input.ReferenceURLs)
}

func TestLoadInput_FileWithOverride(t *testing.T) {
	resetRunFlags(t)

	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"course_subject": "Comptabilité", "target_audience": "Experts"}`), 0644))

	flags := runCommand.Flags()
	require.NoError(t, flags.Set("input", path))
	require.NoError(t, flags.Set("audience", "Débutants"))

	input, err := loadInput(runCommand)
	require.NoError(t, err)
	assert.Equal(t, "Comptabilité", input.CourseSubject)
	assert.Equal(t, "Débutants", input.TargetAudience)
}

func TestLoadInput_Errors(t *testing.T) {
	t.Run("missing subject", func(t *testing.T) {
		resetRunFlags(t)
		_, err := loadInput(runCommand)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "course subject is required")
	})

	t.Run("invalid url", func(t *testing.T) {
		resetRunFlags(t)
		require.NoError(t, runCommand.Flags().Set("subject", "ERP"))
		require.NoError(t, runCommand.Flags().Set("ref-url", "not a url"))
		_, err := loadInput(runCommand)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid course input")
	})

	t.Run("unreadable file", func(t *testing.T) {
		resetRunFlags(t)
		require.NoError(t, runCommand.Flags().Set("input", filepath.Join(t.TempDir(), "missing.json")))
		_, err := loadInput(runCommand)
		require.Error(t, err)
	})
}

func TestRunCommand_MissingAPIKey(t *testing.T) {
	resetRunFlags(t)
	t.Setenv("GEMINI_API_KEY", "")

	require.NoError(t, runCommand.Flags().Set("subject", "ERP"))
	err := runPipelineCmd(runCommand, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is required")
}

func TestOpenStore_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := loadConfig(&cobra.Command{})
	require.NoError(t, err)

	_, err = openStore(t.Context(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}
