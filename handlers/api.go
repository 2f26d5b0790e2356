package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListPatients returns the patients, filtered by ?q= on nom or prenom.
func (h *HTTPHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) > 100 {
		RespondWithError(w, http.StatusBadRequest, "query too long (max 100 characters)")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.app.Search(query))
}

// GetPatient returns one patient.
func (h *HTTPHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, ok := h.app.Patient(chi.URLParam(r, "id"))
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, p)
}

// ListOrdonnances returns the prescriptions of a patient in creation order.
func (h *HTTPHandler) ListOrdonnances(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.app.Patient(id); !ok {
		RespondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.app.OrdonnancesFor(id))
}

// ListEchos returns the ultrasound reports of a patient in creation order.
func (h *HTTPHandler) ListEchos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.app.Patient(id); !ok {
		RespondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.app.EchosFor(id))
}

// HealthCheck reports whether every collection is persisted.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.health.HealthCheck()
	RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   details,
	})
}
