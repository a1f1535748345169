package types

import "fmt"

// Defaults applied to sequencer output that leaves fields empty.
const (
	DefaultActivityType = "text"
	DefaultBloomLevel   = "Comprendre"
	DefaultDifficulty   = "facile"
	DefaultDuration     = 10
)

// ActivityDescriptor is one screen produced by the sequencing agent.
type ActivityDescriptor struct {
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
	Commentaire   string `json:"commentaire"`
}

// Normalize fills empty fields of the activity at position index (0-based)
// so that the persisted row and the derived script id agree.
func (a ActivityDescriptor) Normalize(index int) ActivityDescriptor {
	if a.NumEcran == "" {
		a.NumEcran = fmt.Sprintf("%02d", index+1)
	}
	if a.Sequence == "" {
		a.Sequence = fmt.Sprintf("Seq%d", index+1)
	}
	if a.TitreEcran == "" {
		a.TitreEcran = fmt.Sprintf("Écran %d", index+1)
	}
	if a.TypeActivite == "" {
		a.TypeActivite = DefaultActivityType
	}
	if a.NiveauBloom == "" {
		a.NiveauBloom = DefaultBloomLevel
	}
	if a.Difficulte == "" {
		a.Difficulte = DefaultDifficulty
	}
	if a.DureeEstimee <= 0 {
		a.DureeEstimee = DefaultDuration
	}
	return a
}

// ScriptID derives the composite key of a generated script. It depends only
// on the three source fields.
func ScriptID(numEcran, sequence, activityType string) string {
	return fmt.Sprintf("%s-%s_%s", numEcran, sequence, activityType)
}

// ScriptID returns the composite key of the script generated for this activity.
func (a ActivityDescriptor) ScriptID() string {
	return ScriptID(a.NumEcran, a.Sequence, a.TypeActivite)
}
