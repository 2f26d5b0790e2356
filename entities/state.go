package entities

// Slot names the storage location of one collection.
type Slot string

const (
	SlotPatients    Slot = "patients"
	SlotOrdonnances Slot = "ordonnances"
	SlotEchos       Slot = "echos"
)

// Slots returns every slot in load order.
func Slots() []Slot {
	return []Slot{SlotPatients, SlotOrdonnances, SlotEchos}
}

// View is the screen the practitioner currently works on.
type View string

const (
	ViewPatients          View = "patients"
	ViewPrescriptionEntry View = "prescriptionEntry"
	ViewPrescriptionPrint View = "prescriptionPrint"
	ViewPatientFiche      View = "patientFiche"
	ViewEchoEntry         View = "echoEntry"
	ViewEchoPrint         View = "echoPrint"
)

// State is a read-only copy of the application state. Collections are in creation order.
type State struct {
	View              View
	Patients          []Patient
	Ordonnances       []Ordonnance
	Echos             []CompteRenduEcho
	SelectedPatient   *Patient
	CurrentOrdonnance *Ordonnance
	CurrentEcho       *CompteRenduEcho
	PendingSlots      []Slot
}
