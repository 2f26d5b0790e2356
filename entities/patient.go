// Package entities holds the records kept by the cabinet: patients, prescriptions
// (ordonnances) and ultrasound reports (comptes rendus d'échographie).
package entities

import (
	"fmt"
	"strings"
	"time"
)

// Sexe is the patient's sex as recorded on the fiche.
type Sexe string

const (
	Homme Sexe = "Homme"
	Femme Sexe = "Femme"
)

// ParseSexe accepts exactly "Homme" or "Femme" (surrounding spaces ignored).
func ParseSexe(s string) (Sexe, error) {
	switch Sexe(strings.TrimSpace(s)) {
	case Homme:
		return Homme, nil
	case Femme:
		return Femme, nil
	}
	return "", fmt.Errorf("invalid sexe: %q", s)
}

// Patient is a person tracked by the practice. It is never updated once created.
type Patient struct {
	ID               string    `json:"id"`
	Nom              string    `json:"nom"`
	Prenom           string    `json:"prenom"`
	Age              int       `json:"age"`
	Sexe             Sexe      `json:"sexe"`
	Poids            float64   `json:"poids"` // kg
	Adresse          *string   `json:"adresse,omitempty"`
	Pathologie       *string   `json:"pathologie,omitempty"`
	TraitementActuel *string   `json:"traitementActuel,omitempty"`
	DateInscription  time.Time `json:"dateInscription"`
}

// PatientDraft is a validated patient without identity or timestamp.
type PatientDraft struct {
	Nom              string
	Prenom           string
	Age              int
	Sexe             Sexe
	Poids            float64
	Adresse          *string
	Pathologie       *string
	TraitementActuel *string
}

// NewPatient stamps a draft with its id and registration date.
func NewPatient(id string, now time.Time, d PatientDraft) Patient {
	return Patient{
		ID:               id,
		Nom:              d.Nom,
		Prenom:           d.Prenom,
		Age:              d.Age,
		Sexe:             d.Sexe,
		Poids:            d.Poids,
		Adresse:          d.Adresse,
		Pathologie:       d.Pathologie,
		TraitementActuel: d.TraitementActuel,
		DateInscription:  now,
	}
}

// FullName returns "Prenom Nom", the order used on lists and documents.
func (p Patient) FullName() string {
	return p.Prenom + " " + p.Nom
}

// Clone returns a copy that shares no pointers with p.
func (p Patient) Clone() Patient {
	p.Adresse = cloneString(p.Adresse)
	p.Pathologie = cloneString(p.Pathologie)
	p.TraitementActuel = cloneString(p.TraitementActuel)
	return p
}
