// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/course-designer/internal/stats"
	"github.com/jonathan/course-designer/internal/types"
	"github.com/jonathan/course-designer/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// objectiveText picks a readable label out of an opaque objective value.
func objectiveText(o any) string {
	switch v := o.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"objectif", "objective", "texte", "text", "description"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", o)
}

// PrintAnalysis outputs the extracted objectives of an analysis.
func (p *Printer) PrintAnalysis(analysis *types.Analysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Objectives: %d\n", analysis.ObjectiveCount()))

	if len(analysis.Objectives) > 0 {
		sb.WriteString("\n")
		count := min(len(analysis.Objectives), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", truncate(objectiveText(analysis.Objectives[i]), 50)))
		}
		if len(analysis.Objectives) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(analysis.Objectives)-maxItemsToShow))
		}
	}

	p.printBox("OBJECTIVE ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintActivities outputs the generated sequence in screen order.
func (p *Printer) PrintActivities(activities []types.ActivityDescriptor) {
	if len(activities) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sequence of %d activities:\n\n", len(activities)))

	count := min(len(activities), maxItemsToShow)
	for i := 0; i < count; i++ {
		a := activities[i]
		sb.WriteString(fmt.Sprintf("%s  %s\n", a.NumEcran, a.TitreEcran))
		sb.WriteString(fmt.Sprintf("    %s", a.TypeActivite))
		if a.NiveauBloom != "" {
			sb.WriteString(fmt.Sprintf(" · %s", a.NiveauBloom))
		}
		if a.DureeEstimee > 0 {
			sb.WriteString(fmt.Sprintf(" · %d min", a.DureeEstimee))
		}
		sb.WriteString("\n")
	}

	if len(activities) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more activities", len(activities)-maxItemsToShow))
	}

	p.printBox("COURSE SEQUENCE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScripts outputs the generated scripts and the ones that failed.
func (p *Printer) PrintScripts(scripts []workflow.GeneratedScript, failures []*workflow.PartialItemFailure) {
	if len(scripts) == 0 && len(failures) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d scripts:\n\n", len(scripts)))

	count := min(len(scripts), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := scripts[i]
		kind := "text"
		if _, ok := s.Script.(string); !ok {
			kind = "structured"
		}
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", s.ScriptID, kind))
	}
	if len(scripts) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more scripts\n", len(scripts)-maxItemsToShow))
	}

	for _, f := range failures {
		sb.WriteString(fmt.Sprintf("\n⚠ %s\n", f.ScriptID))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(f.Err.Error(), 45)))
	}

	p.printBox("GENERATED SCRIPTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs the outcome of a pipeline run.
func (p *Printer) PrintResult(res *workflow.Result) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:   %s\n", res.SessionID))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", res.Status))
	sb.WriteString(fmt.Sprintf("Duration:  %.1fs\n", res.Duration.Seconds()))
	if res.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Error:     %s\n", res.ErrorMessage))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Objectives: %d\n", res.Analysis.ObjectiveCount()))
	sb.WriteString(fmt.Sprintf("Activities: %d\n", len(res.Activities)))
	sb.WriteString(fmt.Sprintf("Scripts:    %d", len(res.Scripts)))
	if len(res.ScriptFailures) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d failed)", len(res.ScriptFailures)))
	}
	sb.WriteString("\n")
	if res.DocumentsProcessed > 0 {
		sb.WriteString(fmt.Sprintf("Documents:  %d\n", res.DocumentsProcessed))
	}

	title := "✅ WORKFLOW COMPLETED"
	if res.Failed() {
		title = "❌ WORKFLOW FAILED"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStatistics outputs the global statistics summary.
func (p *Printer) PrintStatistics(summary *stats.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sessions:     %d\n", summary.Sessions.Total))
	sb.WriteString(fmt.Sprintf("  completed:  %d\n", summary.Sessions.Completed))
	sb.WriteString(fmt.Sprintf("  failed:     %d\n", summary.Sessions.Failed))
	sb.WriteString(fmt.Sprintf("  success:    %.1f%%\n", summary.Sessions.SuccessRate))
	sb.WriteString(fmt.Sprintf("  avg time:   %.1fs\n", summary.Sessions.AvgDurationSeconds))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Activities:   %d (in %d sessions)\n",
		summary.Activities.Total, summary.Activities.SessionsWithActivities))

	if len(summary.Distributions.ActivityTypes) > 0 {
		sb.WriteString("\nActivity types:\n")
		kinds := make([]string, 0, len(summary.Distributions.ActivityTypes))
		for k := range summary.Distributions.ActivityTypes {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool {
			ci, cj := summary.Distributions.ActivityTypes[kinds[i]], summary.Distributions.ActivityTypes[kinds[j]]
			if ci != cj {
				return ci > cj
			}
			return kinds[i] < kinds[j]
		})
		for _, k := range kinds {
			sb.WriteString(fmt.Sprintf("  • %-12s %d\n", k, summary.Distributions.ActivityTypes[k]))
		}
	}

	p.printBox("STATISTICS", strings.TrimSuffix(sb.String(), "\n"))
}
