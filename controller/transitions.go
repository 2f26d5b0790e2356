package controller

import (
	"fmt"
	"strings"

	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/metrics"
)

func (c *Controller) invalid(event string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, c.view)
}

// selectLocked moves from the patients view to target with patientID selected.
func (c *Controller) selectLocked(event, patientID string, target entities.View) error {
	if c.view != entities.ViewPatients {
		return c.invalid(event)
	}
	p, ok := c.findPatientLocked(patientID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	c.selected = &p
	c.view = target
	return nil
}

// SelectForPrescription opens the prescription form for a patient.
func (c *Controller) SelectForPrescription(patientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked("select for prescription", patientID, entities.ViewPrescriptionEntry)
}

// SelectForEcho opens the ultrasound report form for a patient.
func (c *Controller) SelectForEcho(patientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked("select for echo", patientID, entities.ViewEchoEntry)
}

// ShowFiche opens the patient card.
func (c *Controller) ShowFiche(patientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked("view patient card", patientID, entities.ViewPatientFiche)
}

// FicheToPrescription goes from the patient card to the prescription form.
func (c *Controller) FicheToPrescription() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != entities.ViewPatientFiche {
		return c.invalid("request prescription")
	}
	c.view = entities.ViewPrescriptionEntry
	return nil
}

// FicheToEcho goes from the patient card to the ultrasound report form.
func (c *Controller) FicheToEcho() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != entities.ViewPatientFiche {
		return c.invalid("request echo")
	}
	c.view = entities.ViewEchoEntry
	return nil
}

// Back returns to the patient list and forgets the selection. It is a no-op on the
// patient list.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = entities.ViewPatients
	c.selected = nil
	c.currentOrdonnance = nil
	c.currentEcho = nil
}

// AddPatient registers a patient from the patient list. The record is kept even if
// it cannot be persisted; the slot is then retried by Sync.
func (c *Controller) AddPatient(d entities.PatientDraft) (entities.Patient, error) {
	if strings.TrimSpace(d.Nom) == "" || strings.TrimSpace(d.Prenom) == "" || d.Age <= 0 || d.Poids <= 0 {
		return entities.Patient{}, fmt.Errorf("%w: patient", ErrInvalidDraft)
	}
	if _, err := entities.ParseSexe(string(d.Sexe)); err != nil {
		return entities.Patient{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != entities.ViewPatients {
		return entities.Patient{}, c.invalid("add patient")
	}

	p := entities.NewPatient(c.newID(), c.clock.Now(), d)
	c.patients = append(c.patients, p)
	metrics.RecordsCreatedTotal.WithLabelValues("patient").Inc()
	logging.Info("Patient added", "patient_id", p.ID)

	_ = c.persistLocked(entities.SlotPatients)
	return p.Clone(), nil
}

// CreatePrescription records a prescription for the selected patient and shows its
// printable version.
func (c *Controller) CreatePrescription(d entities.OrdonnanceDraft) (entities.Ordonnance, error) {
	if len(d.Medicaments) == 0 {
		return entities.Ordonnance{}, fmt.Errorf("%w: no medication", ErrInvalidDraft)
	}
	for _, m := range d.Medicaments {
		if !m.Complete() {
			return entities.Ordonnance{}, fmt.Errorf("%w: incomplete medication line", ErrInvalidDraft)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != entities.ViewPrescriptionEntry {
		return entities.Ordonnance{}, c.invalid("submit prescription")
	}
	if c.selected == nil || c.selected.ID != d.PatientID {
		return entities.Ordonnance{}, ErrWrongPatient
	}

	o := entities.NewOrdonnance(c.newID(), c.clock.Now(), d)
	c.ordonnances = append(c.ordonnances, o)
	metrics.RecordsCreatedTotal.WithLabelValues("ordonnance").Inc()
	logging.Info("Ordonnance created", "ordonnance_id", o.ID, "patient_id", o.PatientID, "lines", len(o.Medicaments))

	_ = c.persistLocked(entities.SlotOrdonnances)

	current := o.Clone()
	c.currentOrdonnance = &current
	c.view = entities.ViewPrescriptionPrint
	return o.Clone(), nil
}

// CreateEcho records an ultrasound report for the selected patient and shows its
// printable version.
func (c *Controller) CreateEcho(d entities.EchoDraft) (entities.CompteRenduEcho, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != entities.ViewEchoEntry {
		return entities.CompteRenduEcho{}, c.invalid("submit echo")
	}
	if c.selected == nil || c.selected.ID != d.PatientID {
		return entities.CompteRenduEcho{}, ErrWrongPatient
	}

	e := entities.NewEcho(c.newID(), c.clock.Now(), d)
	c.echos = append(c.echos, e)
	metrics.RecordsCreatedTotal.WithLabelValues("echo").Inc()
	logging.Info("Compte rendu echo created", "echo_id", e.ID, "patient_id", e.PatientID)

	_ = c.persistLocked(entities.SlotEchos)

	current := e.Clone()
	c.currentEcho = &current
	c.view = entities.ViewEchoPrint
	return e.Clone(), nil
}
