// Package projection assembles the nested course content document of a
// session from its separately stored activities and scripts.
package projection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/course-designer/internal/db"
)

// Activite is the activity object exposed in the content document.
type Activite struct {
	Sequence      string `json:"sequence"`
	NumEcran      string `json:"num_ecran"`
	TitreEcran    string `json:"titre_ecran"`
	SousTitre     string `json:"sous_titre"`
	ResumeContenu string `json:"resume_contenu"`
	TypeActivite  string `json:"type_activite"`
	NiveauBloom   string `json:"niveau_bloom"`
	Difficulte    string `json:"difficulte"`
	DureeEstimee  int    `json:"duree_estimee"`
	ObjectifLie   string `json:"objectif_lie"`
}

// Entry pairs an activity with its script. Script is the parsed JSON document
// when the stored content parses, otherwise the raw text ("" when missing).
type Entry struct {
	ID       string   `json:"-"`
	Activite Activite `json:"activite"`
	Script   any      `json:"script"`
}

// Content is the ordered activity_id -> entry document. Its JSON encoding is an
// object whose keys keep screen order.
type Content []Entry

// Keys returns the activity ids in document order.
func (c Content) Keys() []string {
	keys := make([]string, len(c))
	for i, e := range c {
		keys[i] = e.ID
	}
	return keys
}

// Get returns the entry for an activity id.
func (c Content) Get(id string) (Entry, bool) {
	for _, e := range c {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// MarshalJSON encodes the content as a JSON object in document order.
func (c Content) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entry %s: %w", e.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ActivityID derives the key of an activity in the content document.
func ActivityID(numEcran, titreEcran, typeActivite string) string {
	return fmt.Sprintf("%s-%s_%s", numEcran, strings.ReplaceAll(titreEcran, " ", "-"), typeActivite)
}

// ParseScript decodes stored script content, falling back to the raw text
// when it is not a JSON document.
func ParseScript(raw string) any {
	if raw == "" {
		return ""
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}
	return parsed
}

// Project joins activities (already in screen order) with scripts (in storage
// order). Each activity takes the first script whose type matches its own;
// later scripts of the same type never win. An activity without a matching
// script gets an empty script. Activities that share an id collapse into the
// position of the first one, carrying the last one's data.
func Project(activities []db.Activity, scripts []db.Script) Content {
	byType := make(map[string]string, len(scripts))
	for _, s := range scripts {
		if _, seen := byType[s.ScriptType]; !seen {
			byType[s.ScriptType] = s.Content
		}
	}

	content := make(Content, 0, len(activities))
	position := make(map[string]int, len(activities))
	for _, a := range activities {
		entry := Entry{
			ID:       ActivityID(a.NumEcran, a.TitreEcran, a.TypeActivite),
			Activite: activiteFrom(a),
			Script:   "",
		}
		if raw, ok := byType[a.TypeActivite]; ok {
			entry.Script = ParseScript(raw)
		}

		if i, dup := position[entry.ID]; dup {
			content[i] = entry
			continue
		}
		position[entry.ID] = len(content)
		content = append(content, entry)
	}
	return content
}

func activiteFrom(a db.Activity) Activite {
	return Activite{
		Sequence:      a.SequenceName,
		NumEcran:      a.NumEcran,
		TitreEcran:    a.TitreEcran,
		SousTitre:     a.SousTitre,
		ResumeContenu: a.ResumeContenu,
		TypeActivite:  a.TypeActivite,
		NiveauBloom:   a.NiveauBloom,
		Difficulte:    a.Difficulte,
		DureeEstimee:  a.DureeEstimee,
		ObjectifLie:   a.ObjectifLie,
	}
}
