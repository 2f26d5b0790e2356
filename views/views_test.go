package views

import (
	"strings"
	"testing"
	"time"

	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/forms"
)

func renderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func render(t *testing.T, r *Renderer, name string, page Page) string {
	t.Helper()
	var sb strings.Builder
	if err := r.Render(&sb, name, page); err != nil {
		t.Fatalf("Render(%s): %v", name, err)
	}
	return sb.String()
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func assertNotContains(t *testing.T, out string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(out, s) {
			t.Errorf("expected output not to contain %q", s)
		}
	}
}

var karim = entities.Patient{
	ID: "p1", Nom: "Benali", Prenom: "Karim", Age: 45, Sexe: entities.Homme, Poids: 78.5,
	DateInscription: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
}

func TestPageForView(t *testing.T) {
	tests := map[entities.View]string{
		entities.ViewPatients:          PagePatients,
		entities.ViewPrescriptionEntry: PageOrdonnanceForm,
		entities.ViewPrescriptionPrint: PageOrdonnancePrint,
		entities.ViewPatientFiche:      PageFiche,
		entities.ViewEchoEntry:         PageEchoForm,
		entities.ViewEchoPrint:         PageEchoPrint,
	}
	for view, want := range tests {
		if got := PageForView(view); got != want {
			t.Errorf("PageForView(%s) = %s, want %s", view, got, want)
		}
	}
}

func TestRenderUnknownPage(t *testing.T) {
	var sb strings.Builder
	if err := renderer(t).Render(&sb, "nope", Page{}); err == nil {
		t.Error("expected error for unknown page")
	}
}

func TestPatientsPage(t *testing.T) {
	r := renderer(t)

	empty := render(t, r, PagePatients, Page{})
	assertContains(t, empty, "Aucun patient enregistré", "Nouveau Patient")
	assertNotContains(t, empty, "Enregistrement en attente")

	out := render(t, r, PagePatients, Page{
		Query:    "ben",
		Patients: []entities.Patient{karim},
		Errors:   forms.ValidationErrors{"age": "Âge invalide (entier de 1 à 120)"},
		Pending:  []entities.Slot{entities.SlotPatients},
	})
	assertContains(t, out,
		"Liste des Patients (1)",
		"Karim Benali",
		"45 ans - 78.5 kg",
		"/patients/p1/ordonnance",
		"Âge invalide",
		`value="ben"`,
		"Enregistrement en attente (patients)",
	)
}

func TestFicheMissingAddress(t *testing.T) {
	p := karim
	out := render(t, renderer(t), PageFiche, Page{State: entities.State{SelectedPatient: &p}})
	assertContains(t, out, "FICHE PATIENT", "Non renseignée", "09/03/2026", "prière de ramener tous vos documents")
	assertNotContains(t, out, "Pathologie:", "Traitement actuel:")
}

func TestFicheOptionalFields(t *testing.T) {
	p := karim
	p.Adresse = entities.Optional("Oran")
	p.Pathologie = entities.Optional("Lithiase rénale")
	out := render(t, renderer(t), PageFiche, Page{State: entities.State{SelectedPatient: &p}})
	assertContains(t, out, "Oran", "Pathologie:", "Lithiase rénale")
	assertNotContains(t, out, "Non renseignée", "Traitement actuel:")
}

func TestOrdonnancePrint(t *testing.T) {
	p := karim
	o := entities.Ordonnance{
		ID: "o1", PatientID: "p1",
		Medicaments: []entities.Medicament{
			{Nom: "Paracétamol", Posologie: "1cp x3/j", Duree: "7j"},
			{Nom: "Omeprazole", Posologie: "1 gel le matin", Duree: "1 mois"},
		},
		DateOrdonnance: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}

	out := render(t, renderer(t), PageOrdonnancePrint, Page{State: entities.State{
		SelectedPatient: &p, CurrentOrdonnance: &o,
	}})
	assertContains(t, out,
		"Dr. BOUDGHÈNE STAMBOULI Med. Fewzi",
		"الحكيم بودغن استمبولي محمد فوزي",
		"Fait Le </strong>14/10/2026",
		"1/ Paracétamol",
		"2/ Omeprazole",
		"Posologie: 1cp x3/j",
		"Durée: 7j",
		"Signature et Cachet du Médecin",
		"window.print()",
	)
	assertNotContains(t, out, "Notes:")
	if strings.Index(out, "1/ Paracétamol") > strings.Index(out, "2/ Omeprazole") {
		t.Error("medications printed out of order")
	}

	o.Notes = entities.Optional("A jeun")
	out = render(t, renderer(t), PageOrdonnancePrint, Page{State: entities.State{
		SelectedPatient: &p, CurrentOrdonnance: &o,
	}})
	assertContains(t, out, "Notes:</strong> A jeun")
}

func TestEchoPrintOmitsEmptySections(t *testing.T) {
	p := karim
	e := entities.CompteRenduEcho{ID: "e1", PatientID: "p1", DateExamen: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	e.ReinDroitTaille = entities.Optional("11 cm")
	e.Vessie = entities.Optional("Bonne réplétion")

	out := render(t, renderer(t), PageEchoPrint, Page{State: entities.State{SelectedPatient: &p, CurrentEcho: &e}})
	assertContains(t, out,
		"COMPTE RENDU D",
		"Karim Benali - 45 ans",
		"01/10/2026",
		"* REIN DROIT :",
		"- Taille : 11 cm",
		"* VESSIE :",
		"Bonne réplétion",
	)
	assertNotContains(t, out, "REIN GAUCHE", "PROSTATE", "TESTICULES", "Echostructure")
}

func TestOrdonnanceFormRows(t *testing.T) {
	p := karim
	out := render(t, renderer(t), PageOrdonnanceForm, Page{
		State:  entities.State{SelectedPatient: &p},
		Rows:   []entities.Medicament{{Nom: "Doliprane"}, {}},
		Focus:  1,
		Errors: forms.ValidationErrors{"medicaments": "Au moins un médicament complet est requis"},
	})
	assertContains(t, out, "Médicament 1", "Médicament 2", `value="Doliprane"`, "Supprimer", "Au moins un médicament complet")
	if strings.Count(out, "autofocus") != 1 {
		t.Errorf("expected exactly one focused row")
	}

	single := render(t, renderer(t), PageOrdonnanceForm, Page{
		State: entities.State{SelectedPatient: &p},
		Rows:  []entities.Medicament{{}},
	})
	assertNotContains(t, single, "Supprimer")
}

func TestEchoFormListsEveryFinding(t *testing.T) {
	p := karim
	out := render(t, renderer(t), PageEchoForm, Page{
		State: entities.State{SelectedPatient: &p},
		Echo:  forms.EchoInput{"prostatePoids": "25 g"},
	})
	for _, section := range entities.EchoLayout() {
		for _, fs := range section.Findings {
			assertContains(t, out, `name="`+fs.Key+`"`)
		}
	}
	assertContains(t, out, "25 g")
}
