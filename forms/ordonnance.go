package forms

import (
	"errors"
	"strings"

	"github.com/giygas/cabinet/entities"
)

var ErrLastRow = errors.New("the last medication row cannot be removed")

// OrdonnanceInput is the prescription form as submitted: the raw rows, including blank
// scaffolding rows, and the notes.
type OrdonnanceInput struct {
	Medicaments []entities.Medicament
	Notes       string
}

type ordonnanceForm struct {
	PatientID   string                `form:"patientId" validate:"required"`
	Medicaments []entities.Medicament `form:"medicaments" validate:"min=1"`
	Notes       string                `form:"notes" validate:"max=2000"`
}

// ParseOrdonnance keeps the complete rows, trimmed and in their original order, and
// requires at least one of them.
func ParseOrdonnance(patientID string, in OrdonnanceInput) (entities.OrdonnanceDraft, error) {
	form := ordonnanceForm{
		PatientID:   strings.TrimSpace(patientID),
		Medicaments: CompleteRows(in.Medicaments),
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := check(form); err != nil {
		return entities.OrdonnanceDraft{}, err
	}

	return entities.OrdonnanceDraft{
		PatientID:   form.PatientID,
		Medicaments: form.Medicaments,
		Notes:       entities.Optional(form.Notes),
	}, nil
}

// CompleteRows returns the trimmed rows whose three fields are filled.
func CompleteRows(rows []entities.Medicament) []entities.Medicament {
	out := make([]entities.Medicament, 0, len(rows))
	for _, m := range rows {
		if !m.Complete() {
			continue
		}
		out = append(out, entities.Medicament{
			Nom:       strings.TrimSpace(m.Nom),
			Posologie: strings.TrimSpace(m.Posologie),
			Duree:     strings.TrimSpace(m.Duree),
		})
	}
	return out
}

// MedicationRows is the editable list of rows on the prescription form. It always holds
// at least one row.
type MedicationRows struct {
	rows []entities.Medicament
}

// NewMedicationRows starts from rows, or from one blank row when rows is empty.
func NewMedicationRows(rows []entities.Medicament) *MedicationRows {
	r := &MedicationRows{rows: append([]entities.Medicament(nil), rows...)}
	if len(r.rows) == 0 {
		r.rows = append(r.rows, entities.Medicament{})
	}
	return r
}

// Rows returns a copy of the current rows.
func (r *MedicationRows) Rows() []entities.Medicament {
	return append([]entities.Medicament(nil), r.rows...)
}

// Len returns the number of rows.
func (r *MedicationRows) Len() int {
	return len(r.rows)
}

// Add appends a blank row and returns its index.
func (r *MedicationRows) Add() int {
	r.rows = append(r.rows, entities.Medicament{})
	return len(r.rows) - 1
}

// Remove deletes row i. The last remaining row is kept.
func (r *MedicationRows) Remove(i int) error {
	if i < 0 || i >= len(r.rows) {
		return errors.New("medication row out of range")
	}
	if len(r.rows) == 1 {
		return ErrLastRow
	}
	r.rows = append(r.rows[:i], r.rows[i+1:]...)
	return nil
}

// Confirm is the Enter key on row i: when the row is complete a blank row is appended
// and its index returned with true. Otherwise nothing changes.
func (r *MedicationRows) Confirm(i int) (int, bool) {
	if i < 0 || i >= len(r.rows) || !r.rows[i].Complete() {
		return i, false
	}
	return r.Add(), true
}
