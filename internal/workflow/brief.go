package workflow

import (
	"errors"
	"strings"

	"github.com/jonathan/course-designer/internal/fetch"
	"github.com/jonathan/course-designer/internal/types"
)

// maxDocumentChars bounds the text each reference document adds to the brief.
const maxDocumentChars = 4000

// BuildBrief assembles the analysis brief from the course input. The subject
// is mandatory; optional sections appear only when non-empty.
func BuildBrief(input types.UserInput, docs []fetch.Document) (string, error) {
	subject := strings.TrimSpace(input.CourseSubject)
	if subject == "" {
		return "", errors.New("course subject is required")
	}

	parts := []string{
		"# INFORMATIONS SUR LE COURS\n",
		"## Sujet Principal\n" + subject + "\n",
	}
	if v := strings.TrimSpace(input.TargetAudience); v != "" {
		parts = append(parts, "## Public Cible\n"+v+"\n")
	}
	if v := strings.TrimSpace(input.LearningObjectives); v != "" {
		parts = append(parts, "## Objectifs Existants\n"+v+"\n")
	}
	if v := strings.TrimSpace(input.SourceText); v != "" {
		parts = append(parts, "## Contenu Supplémentaire\n"+v+"\n")
	}
	if len(docs) > 0 {
		var sb strings.Builder
		sb.WriteString("## Documents de référence\n")
		for _, d := range docs {
			sb.WriteString(d.Summary(maxDocumentChars))
		}
		parts = append(parts, sb.String())
	}

	return strings.Join(parts, "\n"), nil
}
