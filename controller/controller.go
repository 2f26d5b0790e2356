// Package controller owns the records and the current view. It is the only writer of
// the three collections and mirrors each of them to its store slot after every change.
package controller

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/interfaces"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/metrics"
	"github.com/giygas/cabinet/search"
	"github.com/giygas/cabinet/store"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrWrongPatient      = errors.New("record is not for the selected patient")
	ErrInvalidDraft      = errors.New("invalid draft")
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for creation timestamps.
func WithClock(clock interfaces.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// Controller implements interfaces.Application.
type Controller struct {
	mu sync.RWMutex

	store interfaces.Store
	clock interfaces.Clock
	newID func() string

	view        entities.View
	patients    []entities.Patient
	ordonnances []entities.Ordonnance
	echos       []entities.CompteRenduEcho

	selected          *entities.Patient
	currentOrdonnance *entities.Ordonnance
	currentEcho       *entities.CompteRenduEcho

	dirty     map[entities.Slot]bool
	lastSaved time.Time
}

var _ interfaces.Application = (*Controller)(nil)

// New creates a controller on the patients view with empty collections. Call Load to
// read the persisted slots.
func New(s interfaces.Store, opts ...Option) *Controller {
	c := &Controller{
		store:       s,
		clock:       systemClock{},
		newID:       uuid.NewString,
		view:        entities.ViewPatients,
		patients:    []entities.Patient{},
		ordonnances: []entities.Ordonnance{},
		echos:       []entities.CompteRenduEcho{},
		dirty:       map[entities.Slot]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the collections with the content of the store slots. Absent or
// malformed slots load as empty collections.
func (c *Controller) Load() {
	patients := store.LoadCollection[entities.Patient](c.store, entities.SlotPatients)
	ordonnances := store.LoadCollection[entities.Ordonnance](c.store, entities.SlotOrdonnances)
	echos := store.LoadCollection[entities.CompteRenduEcho](c.store, entities.SlotEchos)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.patients = patients
	c.ordonnances = ordonnances
	c.echos = echos
	c.dirty = map[entities.Slot]bool{}
	metrics.StorePendingSlots.Set(0)
}

// Snapshot returns a deep copy of the whole state.
func (c *Controller) Snapshot() entities.State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := entities.State{
		View:         c.view,
		Patients:     clonePatients(c.patients),
		Ordonnances:  make([]entities.Ordonnance, len(c.ordonnances)),
		Echos:        make([]entities.CompteRenduEcho, len(c.echos)),
		PendingSlots: c.pendingLocked(),
	}
	for i, o := range c.ordonnances {
		state.Ordonnances[i] = o.Clone()
	}
	for i, e := range c.echos {
		state.Echos[i] = e.Clone()
	}
	if c.selected != nil {
		p := c.selected.Clone()
		state.SelectedPatient = &p
	}
	if c.currentOrdonnance != nil {
		o := c.currentOrdonnance.Clone()
		state.CurrentOrdonnance = &o
	}
	if c.currentEcho != nil {
		e := c.currentEcho.Clone()
		state.CurrentEcho = &e
	}
	return state
}

func clonePatients(in []entities.Patient) []entities.Patient {
	out := make([]entities.Patient, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// Search returns the patients matching query, in creation order.
func (c *Controller) Search(query string) []entities.Patient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePatients(search.FilterPatients(c.patients, query))
}

// Patient looks a patient up by id.
func (c *Controller) Patient(id string) (entities.Patient, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.findPatientLocked(id)
	if !ok {
		return entities.Patient{}, false
	}
	return p.Clone(), true
}

func (c *Controller) findPatientLocked(id string) (entities.Patient, bool) {
	for _, p := range c.patients {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Patient{}, false
}

// OrdonnancesFor returns the prescriptions of one patient in creation order.
func (c *Controller) OrdonnancesFor(patientID string) []entities.Ordonnance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []entities.Ordonnance{}
	for _, o := range c.ordonnances {
		if o.PatientID == patientID {
			out = append(out, o.Clone())
		}
	}
	return out
}

// EchosFor returns the ultrasound reports of one patient in creation order.
func (c *Controller) EchosFor(patientID string) []entities.CompteRenduEcho {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []entities.CompteRenduEcho{}
	for _, e := range c.echos {
		if e.PatientID == patientID {
			out = append(out, e.Clone())
		}
	}
	return out
}

// PendingWrites lists the slots whose last write failed.
func (c *Controller) PendingWrites() []entities.Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingLocked()
}

func (c *Controller) pendingLocked() []entities.Slot {
	pending := make([]entities.Slot, 0, len(c.dirty))
	for slot := range c.dirty {
		pending = append(pending, slot)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
	return pending
}

// LastSaved returns the time of the last successful slot write.
func (c *Controller) LastSaved() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSaved
}

// collectionLocked returns a copy of the collection stored in slot.
func (c *Controller) collectionLocked(slot entities.Slot) any {
	switch slot {
	case entities.SlotPatients:
		return clonePatients(c.patients)
	case entities.SlotOrdonnances:
		out := make([]entities.Ordonnance, len(c.ordonnances))
		for i, o := range c.ordonnances {
			out[i] = o.Clone()
		}
		return out
	default:
		out := make([]entities.CompteRenduEcho, len(c.echos))
		for i, e := range c.echos {
			out[i] = e.Clone()
		}
		return out
	}
}

// persistLocked writes the whole collection of slot. A failure leaves the in-memory
// collection as is and marks the slot dirty for the next Sync.
func (c *Controller) persistLocked(slot entities.Slot) error {
	err := c.store.Save(slot, c.collectionLocked(slot))
	metrics.ObserveWrite(string(slot), err)

	if err != nil {
		c.dirty[slot] = true
		logging.Error("Failed to persist slot, will retry", "slot", slot, "error", err)
	} else {
		delete(c.dirty, slot)
		c.lastSaved = c.clock.Now()
	}
	metrics.StorePendingSlots.Set(float64(len(c.dirty)))
	return err
}

// Sync retries every dirty slot.
func (c *Controller) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, slot := range c.pendingLocked() {
		if err := c.persistLocked(slot); err != nil {
			errs = append(errs, fmt.Errorf("slot %s: %w", slot, err))
		} else {
			logging.Info("Pending slot persisted", "slot", slot)
		}
	}
	return errors.Join(errs...)
}

// Flush rewrites all three slots.
func (c *Controller) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, slot := range entities.Slots() {
		if err := c.persistLocked(slot); err != nil {
			errs = append(errs, fmt.Errorf("slot %s: %w", slot, err))
		}
	}
	return errors.Join(errs...)
}
