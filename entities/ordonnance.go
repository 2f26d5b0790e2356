package entities

import (
	"strings"
	"time"
)

// Medicament is one line of a prescription. It has no identity of its own.
type Medicament struct {
	Nom       string `json:"nom"`
	Posologie string `json:"posologie"`
	Duree     string `json:"duree"`
}

// Complete reports whether the three fields are filled after trimming.
func (m Medicament) Complete() bool {
	return strings.TrimSpace(m.Nom) != "" &&
		strings.TrimSpace(m.Posologie) != "" &&
		strings.TrimSpace(m.Duree) != ""
}

// Blank reports whether every field is empty after trimming.
func (m Medicament) Blank() bool {
	return strings.TrimSpace(m.Nom) == "" &&
		strings.TrimSpace(m.Posologie) == "" &&
		strings.TrimSpace(m.Duree) == ""
}

// Ordonnance is a dated prescription issued to one patient. Medicaments keep the
// prescribing order, which is the numbering used on the printed document.
type Ordonnance struct {
	ID             string       `json:"id"`
	PatientID      string       `json:"patientId"`
	Medicaments    []Medicament `json:"medicaments"`
	Notes          *string      `json:"notes,omitempty"`
	DateOrdonnance time.Time    `json:"dateOrdonnance"`
}

// OrdonnanceDraft is a validated prescription without identity or timestamp.
type OrdonnanceDraft struct {
	PatientID   string
	Medicaments []Medicament
	Notes       *string
}

// NewOrdonnance stamps a draft with its id and date.
func NewOrdonnance(id string, now time.Time, d OrdonnanceDraft) Ordonnance {
	meds := make([]Medicament, len(d.Medicaments))
	copy(meds, d.Medicaments)
	return Ordonnance{
		ID:             id,
		PatientID:      d.PatientID,
		Medicaments:    meds,
		Notes:          cloneString(d.Notes),
		DateOrdonnance: now,
	}
}

// Clone returns a deep copy of o.
func (o Ordonnance) Clone() Ordonnance {
	meds := make([]Medicament, len(o.Medicaments))
	copy(meds, o.Medicaments)
	o.Medicaments = meds
	o.Notes = cloneString(o.Notes)
	return o
}
