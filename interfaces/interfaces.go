// Package interfaces defines the contracts between the cabinet packages so that the
// controller, scheduler, health checker and handlers can be tested with mocks.
package interfaces

import (
	"time"

	"github.com/giygas/cabinet/entities"
)

// Store persists whole collections into named slots.
type Store interface {
	// Load decodes the slot into v
	Load(slot entities.Slot, v any) error
	// Save replaces the slot with the serialization of v
	Save(slot entities.Slot, v any) error
}

// Backupper copies the persisted slots somewhere safe.
type Backupper interface {
	Backup(dst string, now time.Time) (string, error)
}

// Clock supplies creation timestamps.
type Clock interface {
	Now() time.Time
}

// Application is the single owner of the records and of the current view.
// Every mutation goes through it; readers only ever receive copies.
type Application interface {
	Snapshot() entities.State

	// Lookups
	Search(query string) []entities.Patient
	Patient(id string) (entities.Patient, bool)
	OrdonnancesFor(patientID string) []entities.Ordonnance
	EchosFor(patientID string) []entities.CompteRenduEcho

	// Record creation
	AddPatient(d entities.PatientDraft) (entities.Patient, error)
	CreatePrescription(d entities.OrdonnanceDraft) (entities.Ordonnance, error)
	CreateEcho(d entities.EchoDraft) (entities.CompteRenduEcho, error)

	// Navigation
	SelectForPrescription(patientID string) error
	SelectForEcho(patientID string) error
	ShowFiche(patientID string) error
	FicheToPrescription() error
	FicheToEcho() error
	Back()

	Persistence
}

// Persistence reports and repairs slots whose last write failed.
type Persistence interface {
	PendingWrites() []entities.Slot
	LastSaved() time.Time
	Sync() error
	Flush() error
}

// Monitored is what the health checker reads.
type Monitored interface {
	Snapshot() entities.State
	PendingWrites() []entities.Slot
	LastSaved() time.Time
}

// Scheduler runs the background jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports the health of the application.
type HealthChecker interface {
	// HealthCheck returns the status, its details and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
