package forms

import (
	"strings"

	"github.com/giygas/cabinet/entities"
)

// EchoInput is the report form as submitted, keyed by finding key (see
// entities.EchoLayout). Unknown keys are ignored.
type EchoInput map[string]string

type echoForm struct {
	PatientID string `form:"patientId" validate:"required"`
}

// ParseEcho builds a report draft. Only the patient is required; blank findings are
// recorded as absent.
func ParseEcho(patientID string, in EchoInput) (entities.EchoDraft, error) {
	form := echoForm{PatientID: strings.TrimSpace(patientID)}
	if err := check(form); err != nil {
		return entities.EchoDraft{}, err
	}

	draft := entities.EchoDraft{PatientID: form.PatientID}
	for _, section := range entities.EchoLayout() {
		for _, fs := range section.Findings {
			draft.SetFinding(fs.Key, entities.Optional(in[fs.Key]))
		}
	}
	return draft, nil
}
