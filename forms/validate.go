// Package forms turns the raw strings typed into the entry forms into validated drafts.
package forms

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps a form field name to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + v[field]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors extracts field errors from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

var messages = map[string]string{
	"required": "Champ obligatoire",
	"max":      "Texte trop long",
	"min":      "Au moins un médicament complet est requis",
	"oneof":    "Choisir Homme ou Femme",
	"age":      "Âge invalide (entier de 1 à 120)",
	"poids":    "Poids invalide (nombre positif, ex. 78,5)",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("age", func(fl validator.FieldLevel) bool {
		_, ok := parseAge(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("poids", func(fl validator.FieldLevel) bool {
		_, ok := parsePoids(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// check runs the struct tags of s and converts failures to ValidationErrors.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := ValidationErrors{}
	for _, e := range fieldErrs {
		if _, done := out[e.Field()]; done {
			continue
		}
		msg := messages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		out[e.Field()] = msg
	}
	return out
}

// parseAge accepts a whole number of years between 1 and 120.
func parseAge(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 120 {
		return 0, false
	}
	return n, true
}

// parsePoids accepts a positive decimal in kg, with either a point or a comma.
func parsePoids(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f > 500 {
		return 0, false
	}
	return f, true
}
