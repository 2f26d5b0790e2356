package entities

import "time"

// CompteRenduEcho is an ultrasound examination report. Every finding is optional.
type CompteRenduEcho struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patientId"`
	DateExamen time.Time `json:"dateExamen"`

	EchoFindings
}

// EchoFindings groups the findings by anatomical section.
type EchoFindings struct {
	ReinDroitEchostructure    *string `json:"reinDroitEchostructure,omitempty"`
	ReinDroitSituation        *string `json:"reinDroitSituation,omitempty"`
	ReinDroitTaille           *string `json:"reinDroitTaille,omitempty"`
	ReinDroitICP              *string `json:"reinDroitICP,omitempty"`
	ReinDroitVoiesExcretrices *string `json:"reinDroitVoiesExcretrices,omitempty"`

	ReinGaucheEchostructure    *string `json:"reinGaucheEchostructure,omitempty"`
	ReinGaucheSituation        *string `json:"reinGaucheSituation,omitempty"`
	ReinGaucheTaille           *string `json:"reinGaucheTaille,omitempty"`
	ReinGaucheICP              *string `json:"reinGaucheICP,omitempty"`
	ReinGaucheVoiesExcretrices *string `json:"reinGaucheVoiesExcretrices,omitempty"`

	Vessie *string `json:"vessie,omitempty"`

	ProstateEchostructure *string `json:"prostateEchostructure,omitempty"`
	ProstateDimension     *string `json:"prostateDimension,omitempty"`
	ProstatePoids         *string `json:"prostatePoids,omitempty"`
	ProstateResidu        *string `json:"prostateResidu,omitempty"`
	ProstateVesicules     *string `json:"prostateVesicules,omitempty"`

	TesticulesGauche     *string `json:"testiculesGauche,omitempty"`
	TesticulesDroite     *string `json:"testiculesDroite,omitempty"`
	TesticulesConclusion *string `json:"testiculesConclusion,omitempty"`
}

// EchoDraft is a validated report without identity or timestamp.
type EchoDraft struct {
	PatientID string
	EchoFindings
}

// NewEcho stamps a draft with its id and examination date.
func NewEcho(id string, now time.Time, d EchoDraft) CompteRenduEcho {
	return CompteRenduEcho{
		ID:           id,
		PatientID:    d.PatientID,
		DateExamen:   now,
		EchoFindings: d.EchoFindings.Clone(),
	}
}

// Clone returns a deep copy of e.
func (e CompteRenduEcho) Clone() CompteRenduEcho {
	e.EchoFindings = e.EchoFindings.Clone()
	return e
}

// Clone returns a copy of f that shares no pointers with it.
func (f EchoFindings) Clone() EchoFindings {
	for _, section := range echoLayout {
		for _, fs := range section.Findings {
			p := findingPtr[fs.Key](&f)
			*p = cloneString(*p)
		}
	}
	return f
}

// Finding returns the finding stored under its JSON key, nil when absent or unknown.
func (f EchoFindings) Finding(key string) *string {
	access, ok := findingPtr[key]
	if !ok {
		return nil
	}
	return *access(&f)
}

// SetFinding stores v under its JSON key. Unknown keys are reported and ignored.
func (f *EchoFindings) SetFinding(key string, v *string) bool {
	access, ok := findingPtr[key]
	if !ok {
		return false
	}
	*access(f) = v
	return true
}

// FindingSpec describes one finding of the report form.
type FindingSpec struct {
	Key   string
	Label string
}

// SectionSpec is one anatomical block of the report form.
type SectionSpec struct {
	Title    string
	Findings []FindingSpec
}

var echoLayout = []SectionSpec{
	{"REIN DROIT", []FindingSpec{
		{"reinDroitEchostructure", "Echostructure"},
		{"reinDroitSituation", "Situation"},
		{"reinDroitTaille", "Taille"},
		{"reinDroitICP", "I.C.P."},
		{"reinDroitVoiesExcretrices", "Voies Excrétrices"},
	}},
	{"REIN GAUCHE", []FindingSpec{
		{"reinGaucheEchostructure", "Echostructure"},
		{"reinGaucheSituation", "Situation"},
		{"reinGaucheTaille", "Taille"},
		{"reinGaucheICP", "I.C.P."},
		{"reinGaucheVoiesExcretrices", "Voies Excrétrices"},
	}},
	{"VESSIE", []FindingSpec{
		{"vessie", ""},
	}},
	{"PROSTATE", []FindingSpec{
		{"prostateEchostructure", "Echostructure"},
		{"prostateDimension", "Dimension"},
		{"prostatePoids", "Poids"},
		{"prostateResidu", "Résidu Post - Mictionnel"},
		{"prostateVesicules", "Vésicules Séminales"},
	}},
	{"TESTICULES", []FindingSpec{
		{"testiculesGauche", "Gauche"},
		{"testiculesDroite", "Droite"},
		{"testiculesConclusion", "Conclusion"},
	}},
}

var findingPtr = map[string]func(*EchoFindings) **string{
	"reinDroitEchostructure":     func(f *EchoFindings) **string { return &f.ReinDroitEchostructure },
	"reinDroitSituation":         func(f *EchoFindings) **string { return &f.ReinDroitSituation },
	"reinDroitTaille":            func(f *EchoFindings) **string { return &f.ReinDroitTaille },
	"reinDroitICP":               func(f *EchoFindings) **string { return &f.ReinDroitICP },
	"reinDroitVoiesExcretrices":  func(f *EchoFindings) **string { return &f.ReinDroitVoiesExcretrices },
	"reinGaucheEchostructure":    func(f *EchoFindings) **string { return &f.ReinGaucheEchostructure },
	"reinGaucheSituation":        func(f *EchoFindings) **string { return &f.ReinGaucheSituation },
	"reinGaucheTaille":           func(f *EchoFindings) **string { return &f.ReinGaucheTaille },
	"reinGaucheICP":              func(f *EchoFindings) **string { return &f.ReinGaucheICP },
	"reinGaucheVoiesExcretrices": func(f *EchoFindings) **string { return &f.ReinGaucheVoiesExcretrices },
	"vessie":                     func(f *EchoFindings) **string { return &f.Vessie },
	"prostateEchostructure":      func(f *EchoFindings) **string { return &f.ProstateEchostructure },
	"prostateDimension":          func(f *EchoFindings) **string { return &f.ProstateDimension },
	"prostatePoids":              func(f *EchoFindings) **string { return &f.ProstatePoids },
	"prostateResidu":             func(f *EchoFindings) **string { return &f.ProstateResidu },
	"prostateVesicules":          func(f *EchoFindings) **string { return &f.ProstateVesicules },
	"testiculesGauche":           func(f *EchoFindings) **string { return &f.TesticulesGauche },
	"testiculesDroite":           func(f *EchoFindings) **string { return &f.TesticulesDroite },
	"testiculesConclusion":       func(f *EchoFindings) **string { return &f.TesticulesConclusion },
}

// EchoLayout returns the report sections and their findings in printed order.
func EchoLayout() []SectionSpec {
	layout := make([]SectionSpec, len(echoLayout))
	for i, section := range echoLayout {
		layout[i] = SectionSpec{Title: section.Title, Findings: append([]FindingSpec(nil), section.Findings...)}
	}
	return layout
}

// EchoLine is one printed finding. Label is empty for free-text sections (vessie).
type EchoLine struct {
	Label string
	Value string
}

// EchoSection is one anatomical block of the printed report.
type EchoSection struct {
	Title string
	Lines []EchoLine
}

// Sections returns the non-empty sections in printed order. A section whose findings
// are all absent is left out, and so is every absent finding inside a kept section.
func (f EchoFindings) Sections() []EchoSection {
	var sections []EchoSection
	for _, block := range echoLayout {
		var lines []EchoLine
		for _, fs := range block.Findings {
			if v := Value(f.Finding(fs.Key)); v != "" {
				lines = append(lines, EchoLine{Label: fs.Label, Value: v})
			}
		}
		if len(lines) > 0 {
			sections = append(sections, EchoSection{Title: block.Title, Lines: lines})
		}
	}
	return sections
}
