package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/course-designer/internal/stats"
	"github.com/jonathan/course-designer/internal/types"
	"github.com/jonathan/course-designer/internal/workflow"
)

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(&types.Analysis{
		Objectives: []any{
			"Comprendre les modules ERP",
			map[string]any{"objectif": "Configurer un flux achat", "niveau": "appliquer"},
			42,
		},
	})
	output := buf.String()

	assert.Contains(t, output, "OBJECTIVE ANALYSIS")
	assert.Contains(t, output, "Objectives: 3")
	assert.Contains(t, output, "Comprendre les modules ERP")
	assert.Contains(t, output, "Configurer un flux achat")
	assert.Contains(t, output, "42")
}

func TestPrintAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(nil)

	assert.Empty(t, buf.String())
}

func TestPrintActivities(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintActivities([]types.ActivityDescriptor{
		{NumEcran: "01", TitreEcran: "Intro to ERP", TypeActivite: "text", NiveauBloom: "comprendre", DureeEstimee: 5},
		{NumEcran: "02", TitreEcran: "Quiz", TypeActivite: "quiz"},
	})
	output := buf.String()

	assert.Contains(t, output, "COURSE SEQUENCE")
	assert.Contains(t, output, "Sequence of 2 activities")
	assert.Contains(t, output, "01  Intro to ERP")
	assert.Contains(t, output, "5 min")
	assert.Contains(t, output, "quiz")
}

func TestPrintActivities_Truncated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	activities := make([]types.ActivityDescriptor, 8)
	for i := range activities {
		activities[i] = types.ActivityDescriptor{TitreEcran: "Screen", TypeActivite: "text"}.Normalize(i)
	}
	p.PrintActivities(activities)

	assert.Contains(t, buf.String(), "... and 3 more activities")
	assert.NotContains(t, buf.String(), "06  Screen")
}

func TestPrintActivities_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintActivities(nil)
	assert.Empty(t, buf.String())
}

func TestPrintScripts(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScripts(
		[]workflow.GeneratedScript{
			{ScriptID: "01-Seq1_text", Script: "Bonjour"},
			{ScriptID: "02-Seq1_quiz", Script: map[string]any{"questions": []any{"q1"}}},
		},
		[]*workflow.PartialItemFailure{
			{Index: 2, ScriptID: "03-Seq1_text", Err: errors.New("quota exceeded")},
		},
	)
	output := buf.String()

	assert.Contains(t, output, "Generated 2 scripts")
	assert.Contains(t, output, "01-Seq1_text (text)")
	assert.Contains(t, output, "02-Seq1_quiz (structured)")
	assert.Contains(t, output, "⚠ 03-Seq1_text")
	assert.Contains(t, output, "quota exceeded")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&workflow.Result{
		SessionID:  "abc",
		Status:     workflow.StatusCompleted,
		Duration:   90 * time.Second,
		Analysis:   &types.Analysis{Objectives: []any{"a", "b"}},
		Activities: []types.ActivityDescriptor{{}, {}, {}},
		Scripts:    []workflow.GeneratedScript{{}, {}},
		ScriptFailures: []*workflow.PartialItemFailure{
			{Index: 2, Err: errors.New("x")},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "WORKFLOW COMPLETED")
	assert.Contains(t, output, "90.0s")
	assert.Contains(t, output, "Objectives: 2")
	assert.Contains(t, output, "Activities: 3")
	assert.Contains(t, output, "Scripts:    2 (1 failed)")
	assert.NotContains(t, output, "Documents:")
}

func TestPrintResult_Failed(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(&workflow.Result{
		SessionID:    "abc",
		Status:       workflow.StatusFailed,
		ErrorMessage: "sequence stage failed: empty",
	})
	output := buf.String()

	assert.Contains(t, output, "WORKFLOW FAILED")
	assert.Contains(t, output, "sequence stage failed")
	assert.Contains(t, output, "Objectives: 0")
}

func TestPrintStatistics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStatistics(&stats.Summary{
		Sessions:   stats.SessionStats{Total: 4, Completed: 3, Failed: 1, SuccessRate: 75, AvgDurationSeconds: 12.5},
		Activities: stats.ActivityStats{Total: 10, SessionsWithActivities: 3},
		Distributions: stats.Distributions{ActivityTypes: map[string]int64{
			"quiz": 3,
			"text": 7,
		}},
	})
	output := buf.String()

	assert.Contains(t, output, "STATISTICS")
	assert.Contains(t, output, "75.0%")
	assert.Contains(t, output, "10 (in 3 sessions)")
	assert.Less(t, strings.Index(output, "text"), strings.Index(output, "quiz"))
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
