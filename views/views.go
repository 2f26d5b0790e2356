// Package views renders the cabinet pages and the printable documents with html/template.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/forms"
	"github.com/giygas/cabinet/search"
)

//go:embed templates/*.html
var templateFS embed.FS

// DateLayout is the fr-FR short date used on every document.
const DateLayout = "02/01/2006"

// Page names, one per view.
const (
	PagePatients         = "patients"
	PageOrdonnanceForm   = "ordonnance_form"
	PageEchoForm         = "echo_form"
	PageFiche            = "fiche"
	PageOrdonnancePrint  = "ordonnance_print"
	PageEchoPrint        = "echo_print"
	layoutTemplate       = "layout.html"
	letterheadTemplate   = "letterhead.html"
	missingAddressNotice = "Non renseignée"
)

// PageForView maps a controller view to the page that shows it.
func PageForView(v entities.View) string {
	switch v {
	case entities.ViewPrescriptionEntry:
		return PageOrdonnanceForm
	case entities.ViewPrescriptionPrint:
		return PageOrdonnancePrint
	case entities.ViewPatientFiche:
		return PageFiche
	case entities.ViewEchoEntry:
		return PageEchoForm
	case entities.ViewEchoPrint:
		return PageEchoPrint
	default:
		return PagePatients
	}
}

// Page is everything a template may read. Print views only use Patient and the record.
type Page struct {
	State entities.State

	// Patient list
	Query    string
	Patients []entities.Patient

	// Entry forms, echoed back on validation failure
	Errors      forms.ValidationErrors
	PatientForm forms.PatientInput
	Rows        []entities.Medicament
	Notes       string
	Focus       int
	Echo        forms.EchoInput

	Pending []entities.Slot
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date":    func(t time.Time) string { return t.Format(DateLayout) },
	"value":   entities.Value,
	"weight":  search.FormatWeight,
	"summary": search.Summary,
	"header":  search.ListHeader,
	"inc":     func(i int) int { return i + 1 },
	"address": func(s *string) string {
		if v := entities.Value(s); v != "" {
			return v
		}
		return missingAddressNotice
	},
	"layout": entities.EchoLayout,
	"slots": func(slots []entities.Slot) string {
		names := make([]string, len(slots))
		for i, s := range slots {
			names[i] = string(s)
		}
		return strings.Join(names, ", ")
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	pages := []string{PagePatients, PageOrdonnanceForm, PageEchoForm, PageFiche, PageOrdonnancePrint, PageEchoPrint}

	for _, name := range pages {
		t, err := template.New(layoutTemplate).Funcs(funcs).ParseFS(templateFS,
			"templates/"+layoutTemplate, "templates/"+letterheadTemplate, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the page. The output is buffered so that a template error never
// produces a half-written page.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, page); err != nil {
		return fmt.Errorf("failed to render page %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
