// Package search filters the patient list by name.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giygas/cabinet/entities"
)

// FilterPatients returns the patients whose nom or prenom contains query, ignoring case,
// in their original order. A blank query returns patients unchanged; any other query is
// matched as typed, surrounding spaces included.
func FilterPatients(patients []entities.Patient, query string) []entities.Patient {
	if strings.TrimSpace(query) == "" {
		return patients
	}

	lower := cases.Lower(language.Und)
	needle := lower.String(query)

	matches := make([]entities.Patient, 0, len(patients))
	for _, p := range patients {
		if strings.Contains(lower.String(p.Nom), needle) || strings.Contains(lower.String(p.Prenom), needle) {
			matches = append(matches, p)
		}
	}
	return matches
}

// FormatWeight prints a weight the way it was typed: 78.5, 60.
func FormatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

// Summary is the one-line description of a patient in the list.
func Summary(p entities.Patient) string {
	return fmt.Sprintf("%s - %d ans - %s kg", p.FullName(), p.Age, FormatWeight(p.Poids))
}

// ListHeader titles the patient list.
func ListHeader(count int) string {
	if count == 0 {
		return "Aucun patient enregistré"
	}
	return fmt.Sprintf("Liste des Patients (%d)", count)
}
