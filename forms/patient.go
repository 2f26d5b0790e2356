package forms

import (
	"strings"

	"github.com/giygas/cabinet/entities"
)

// PatientInput is the patient form as submitted.
type PatientInput struct {
	Nom              string `form:"nom" validate:"required,max=100"`
	Prenom           string `form:"prenom" validate:"required,max=100"`
	Age              string `form:"age" validate:"required,age"`
	Sexe             string `form:"sexe" validate:"required,oneof=Homme Femme"`
	Poids            string `form:"poids" validate:"required,poids"`
	Adresse          string `form:"adresse" validate:"max=500"`
	Pathologie       string `form:"pathologie" validate:"max=2000"`
	TraitementActuel string `form:"traitementActuel" validate:"max=2000"`
}

func (in PatientInput) trimmed() PatientInput {
	return PatientInput{
		Nom:              strings.TrimSpace(in.Nom),
		Prenom:           strings.TrimSpace(in.Prenom),
		Age:              strings.TrimSpace(in.Age),
		Sexe:             strings.TrimSpace(in.Sexe),
		Poids:            strings.TrimSpace(in.Poids),
		Adresse:          strings.TrimSpace(in.Adresse),
		Pathologie:       strings.TrimSpace(in.Pathologie),
		TraitementActuel: strings.TrimSpace(in.TraitementActuel),
	}
}

// ParsePatient validates the form. On failure the error is a ValidationErrors keyed by
// form field name.
func ParsePatient(in PatientInput) (entities.PatientDraft, error) {
	in = in.trimmed()
	if err := check(in); err != nil {
		return entities.PatientDraft{}, err
	}

	age, _ := parseAge(in.Age)
	poids, _ := parsePoids(in.Poids)
	sexe, err := entities.ParseSexe(in.Sexe)
	if err != nil {
		return entities.PatientDraft{}, ValidationErrors{"sexe": messages["oneof"]}
	}

	return entities.PatientDraft{
		Nom:              in.Nom,
		Prenom:           in.Prenom,
		Age:              age,
		Sexe:             sexe,
		Poids:            poids,
		Adresse:          entities.Optional(in.Adresse),
		Pathologie:       entities.Optional(in.Pathologie),
		TraitementActuel: entities.Optional(in.TraitementActuel),
	}, nil
}
