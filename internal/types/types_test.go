package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   UserInput
		wantErr bool
	}{
		{"subject only", UserInput{CourseSubject: "ERP Basics"}, false},
		{"missing subject", UserInput{TargetAudience: "students"}, true},
		{"valid reference urls", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"https://example.com/erp"}}, false},
		{"invalid reference url", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"not a url"}}, true},
		{"non http scheme", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"file:///etc/passwd"}}, true},
		{"loopback reference url", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"http://127.0.0.1:33839/"}}, true},
		{"localhost reference url", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"http://localhost:8080/admin"}}, true},
		{"metadata reference url", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"https://example.com/erp", "http://169.254.169.254/latest/meta-data/"}}, true},
		{"private ipv6 reference url", UserInput{CourseSubject: "ERP", ReferenceURLs: []string{"http://[fd00::1]/"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserInput_ToMap_OmitsEmptyFields(t *testing.T) {
	in := UserInput{CourseSubject: "ERP Basics", TargetAudience: "  "}
	m := in.ToMap()

	assert.Equal(t, map[string]any{"course_subject": "ERP Basics"}, m)
}

func TestActivityDescriptor_Normalize(t *testing.T) {
	a := ActivityDescriptor{}.Normalize(2)

	assert.Equal(t, "03", a.NumEcran)
	assert.Equal(t, "Seq3", a.Sequence)
	assert.Equal(t, "Écran 3", a.TitreEcran)
	assert.Equal(t, DefaultActivityType, a.TypeActivite)
	assert.Equal(t, DefaultBloomLevel, a.NiveauBloom)
	assert.Equal(t, DefaultDifficulty, a.Difficulte)
	assert.Equal(t, DefaultDuration, a.DureeEstimee)
}

func TestActivityDescriptor_NormalizeKeepsValues(t *testing.T) {
	in := ActivityDescriptor{NumEcran: "07", Sequence: "Intro", TypeActivite: "quiz", DureeEstimee: 25}
	a := in.Normalize(0)

	assert.Equal(t, "07", a.NumEcran)
	assert.Equal(t, "Intro", a.Sequence)
	assert.Equal(t, "quiz", a.TypeActivite)
	assert.Equal(t, 25, a.DureeEstimee)
}

func TestScriptID_Reconstructible(t *testing.T) {
	a := ActivityDescriptor{NumEcran: "01", Sequence: "Seq1", TypeActivite: "text"}

	assert.Equal(t, "01-Seq1_text", a.ScriptID())
	assert.Equal(t, ScriptID(a.NumEcran, a.Sequence, a.TypeActivite), a.ScriptID())
}

func TestAnalysis_ObjectiveCount(t *testing.T) {
	var nilAnalysis *Analysis
	assert.Equal(t, 0, nilAnalysis.ObjectiveCount())
	assert.Equal(t, 2, (&Analysis{Objectives: []any{"a", "b"}}).ObjectiveCount())
}
