package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/cabinet/controller"
	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/forms"
	"github.com/giygas/cabinet/interfaces"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/views"
)

// HTTPHandler turns requests into controller events and renders the resulting view.
type HTTPHandler struct {
	app      interfaces.Application
	renderer *views.Renderer
	health   interfaces.HealthChecker
}

// NewHTTPHandler creates a handler with injected dependencies
func NewHTTPHandler(app interfaces.Application, renderer *views.Renderer, health interfaces.HealthChecker) *HTTPHandler {
	return &HTTPHandler{app: app, renderer: renderer, health: health}
}

// Routes registers every endpoint on r.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Post("/patients", h.AddPatient)
	r.Post("/patients/{id}/ordonnance", h.SelectForPrescription)
	r.Post("/patients/{id}/echo", h.SelectForEcho)
	r.Post("/patients/{id}/fiche", h.ShowFiche)
	r.Post("/ordonnances", h.SubmitOrdonnance)
	r.Post("/echos", h.SubmitEcho)
	r.Post("/fiche/ordonnance", h.FicheToPrescription)
	r.Post("/fiche/echo", h.FicheToEcho)
	r.Post("/back", h.Back)

	r.Route("/api", func(r chi.Router) {
		r.Get("/patients", h.ListPatients)
		r.Get("/patients/{id}", h.GetPatient)
		r.Get("/patients/{id}/ordonnances", h.ListOrdonnances)
		r.Get("/patients/{id}/echos", h.ListEchos)
	})

	r.Get("/health", h.HealthCheck)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render draws page with the current state and pending-write banner.
func (h *HTTPHandler) render(w http.ResponseWriter, status int, page views.Page) {
	if page.State.View == "" {
		page.State = h.app.Snapshot()
	}
	page.Pending = page.State.PendingSlots

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	var sb strings.Builder
	if err := h.renderer.Render(&sb, views.PageForView(page.State.View), page); err != nil {
		logging.Error("Failed to render page", "view", page.State.View, "error", err)
		http.Error(w, "Erreur interne", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(sb.String()))
}

// transitionError answers an event the controller refused.
func (h *HTTPHandler) transitionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, controller.ErrPatientNotFound):
		logging.Warn("Unknown patient", "error", err)
		http.Error(w, "Patient introuvable", http.StatusNotFound)
	case errors.Is(err, controller.ErrInvalidTransition), errors.Is(err, controller.ErrWrongPatient):
		logging.Warn("Refused transition", "error", err)
		http.Error(w, "Action impossible depuis cet écran", http.StatusConflict)
	default:
		logging.Error("Unexpected controller error", "path", r.URL.Path, "error", err)
		http.Error(w, "Erreur interne", http.StatusInternalServerError)
	}
}

// Home renders the current view. On the patient list ?q= filters by name.
func (h *HTTPHandler) Home(w http.ResponseWriter, r *http.Request) {
	state := h.app.Snapshot()
	page := views.Page{State: state}

	switch state.View {
	case entities.ViewPatients:
		page.Query = r.URL.Query().Get("q")
		page.Patients = h.app.Search(page.Query)
	case entities.ViewPrescriptionEntry:
		page.Rows = forms.NewMedicationRows(nil).Rows()
	}
	h.render(w, http.StatusOK, page)
}

func patientInput(r *http.Request) forms.PatientInput {
	return forms.PatientInput{
		Nom:              r.PostFormValue("nom"),
		Prenom:           r.PostFormValue("prenom"),
		Age:              r.PostFormValue("age"),
		Sexe:             r.PostFormValue("sexe"),
		Poids:            r.PostFormValue("poids"),
		Adresse:          r.PostFormValue("adresse"),
		Pathologie:       r.PostFormValue("pathologie"),
		TraitementActuel: r.PostFormValue("traitementActuel"),
	}
}

// AddPatient handles the patient form.
func (h *HTTPHandler) AddPatient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}

	in := patientInput(r)
	draft, err := forms.ParsePatient(in)
	if verrs, ok := forms.AsValidationErrors(err); ok {
		state := h.app.Snapshot()
		h.render(w, http.StatusUnprocessableEntity, views.Page{
			State:       state,
			Patients:    state.Patients,
			PatientForm: in,
			Errors:      verrs,
		})
		return
	}
	if err != nil {
		h.transitionError(w, r, err)
		return
	}

	if _, err := h.app.AddPatient(draft); err != nil {
		h.transitionError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (h *HTTPHandler) selectHandler(w http.ResponseWriter, r *http.Request, event func(string) error) {
	if err := event(chi.URLParam(r, "id")); err != nil {
		h.transitionError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// SelectForPrescription opens the prescription form for a patient.
func (h *HTTPHandler) SelectForPrescription(w http.ResponseWriter, r *http.Request) {
	h.selectHandler(w, r, h.app.SelectForPrescription)
}

// SelectForEcho opens the report form for a patient.
func (h *HTTPHandler) SelectForEcho(w http.ResponseWriter, r *http.Request) {
	h.selectHandler(w, r, h.app.SelectForEcho)
}

// ShowFiche opens the patient card.
func (h *HTTPHandler) ShowFiche(w http.ResponseWriter, r *http.Request) {
	h.selectHandler(w, r, h.app.ShowFiche)
}

// FicheToPrescription goes from the card to the prescription form.
func (h *HTTPHandler) FicheToPrescription(w http.ResponseWriter, r *http.Request) {
	if err := h.app.FicheToPrescription(); err != nil {
		h.transitionError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// FicheToEcho goes from the card to the report form.
func (h *HTTPHandler) FicheToEcho(w http.ResponseWriter, r *http.Request) {
	if err := h.app.FicheToEcho(); err != nil {
		h.transitionError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// Back returns to the patient list.
func (h *HTTPHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.app.Back()
	redirectHome(w, r)
}

// postedRows rebuilds the medication rows from the repeated nom/posologie/duree fields.
func postedRows(r *http.Request) []entities.Medicament {
	noms := r.PostForm["nom"]
	posologies := r.PostForm["posologie"]
	durees := r.PostForm["duree"]

	n := max(len(noms), len(posologies), len(durees))
	rows := make([]entities.Medicament, n)
	for i := range rows {
		if i < len(noms) {
			rows[i].Nom = noms[i]
		}
		if i < len(posologies) {
			rows[i].Posologie = posologies[i]
		}
		if i < len(durees) {
			rows[i].Duree = durees[i]
		}
	}
	return rows
}

// parseAction splits "remove:2" into its verb and row index.
func parseAction(action string) (string, int, error) {
	verb, arg, found := strings.Cut(strings.TrimSpace(action), ":")
	if verb == "" {
		verb = "submit"
	}
	if !found {
		return verb, -1, nil
	}
	i, err := strconv.Atoi(arg)
	if err != nil {
		return "", 0, errors.New("invalid row index")
	}
	return verb, i, nil
}

// SubmitOrdonnance edits the medication rows or submits the prescription, depending
// on the action field.
func (h *HTTPHandler) SubmitOrdonnance(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}

	state := h.app.Snapshot()
	if state.View != entities.ViewPrescriptionEntry || state.SelectedPatient == nil {
		h.transitionError(w, r, controller.ErrInvalidTransition)
		return
	}

	rows := forms.NewMedicationRows(postedRows(r))
	notes := r.PostFormValue("notes")
	page := views.Page{State: state, Notes: notes, Focus: rows.Len() - 1}

	verb, idx, err := parseAction(r.PostFormValue("action"))
	if err != nil {
		http.Error(w, "Action invalide", http.StatusBadRequest)
		return
	}

	switch verb {
	case "add":
		page.Focus = rows.Add()
	case "remove":
		if err := rows.Remove(idx); err != nil {
			logging.Debug("Row not removed", "index", idx, "error", err)
		}
		page.Focus = min(max(idx, 0), rows.Len()-1)
	case "confirm":
		if next, ok := rows.Confirm(idx); ok {
			page.Focus = next
		} else {
			page.Focus = idx
		}
	case "submit":
		draft, err := forms.ParseOrdonnance(state.SelectedPatient.ID, forms.OrdonnanceInput{
			Medicaments: rows.Rows(),
			Notes:       notes,
		})
		if verrs, ok := forms.AsValidationErrors(err); ok {
			page.Rows = rows.Rows()
			page.Errors = verrs
			h.render(w, http.StatusUnprocessableEntity, page)
			return
		}
		if err == nil {
			_, err = h.app.CreatePrescription(draft)
		}
		if err != nil {
			h.transitionError(w, r, err)
			return
		}
		redirectHome(w, r)
		return
	default:
		http.Error(w, "Action invalide", http.StatusBadRequest)
		return
	}

	page.Rows = rows.Rows()
	h.render(w, http.StatusOK, page)
}

// SubmitEcho creates the ultrasound report of the selected patient.
func (h *HTTPHandler) SubmitEcho(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulaire invalide", http.StatusBadRequest)
		return
	}

	state := h.app.Snapshot()
	if state.View != entities.ViewEchoEntry || state.SelectedPatient == nil {
		h.transitionError(w, r, controller.ErrInvalidTransition)
		return
	}

	in := forms.EchoInput{}
	for key := range r.PostForm {
		in[key] = r.PostFormValue(key)
	}

	draft, err := forms.ParseEcho(state.SelectedPatient.ID, in)
	if verrs, ok := forms.AsValidationErrors(err); ok {
		h.render(w, http.StatusUnprocessableEntity, views.Page{State: state, Echo: in, Errors: verrs})
		return
	}
	if err == nil {
		_, err = h.app.CreateEcho(draft)
	}
	if err != nil {
		h.transitionError(w, r, err)
		return
	}
	redirectHome(w, r)
}
