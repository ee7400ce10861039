package entity

import "time"

// Kind identifies a tracked entity kind for change notifications.
type Kind string

// Tracked entity kinds. Every kind has a topic under the broker's
// state hierarchy.
const (
	KindAmbulance         Kind = "ambulance"
	KindHospital          Kind = "hospital"
	KindEquipment         Kind = "equipment"
	KindHospitalEquipment Kind = "hospital_equipment"
	KindCall              Kind = "call"
	KindProfile           Kind = "profile"
	KindSettings          Kind = "settings"
)

// Location is a geographic point in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Ambulance statuses.
const (
	StatusUnknown       = "UK"
	StatusAvailable     = "AV"
	StatusOutOfService  = "OS"
	StatusPatientBound  = "PB"
	StatusAtPatient     = "AP"
	StatusHospitalBound = "HB"
	StatusAtHospital    = "AH"
)

// Ambulance capabilities.
const (
	CapabilityBasic    = "B"
	CapabilityAdvanced = "A"
	CapabilityRescue   = "R"
)

// Ambulance is a dispatchable vehicle.
type Ambulance struct {
	ID                int64
	Identifier        string
	Capability        string
	Status            string
	Orientation       float64
	Location          Location
	LocationTimestamp time.Time
	Comment           string
	UpdatedBy         string
	UpdatedOn         time.Time
}

// Hospital is a care facility holding equipment.
type Hospital struct {
	ID        int64
	Name      string
	Address   string
	Comment   string
	Location  Location
	UpdatedBy string
	UpdatedOn time.Time
}

// Equipment value types.
const (
	EquipmentTypeBoolean = "B"
	EquipmentTypeInteger = "I"
	EquipmentTypeString  = "S"
)

// Equipment is an equipment definition (e.g. "Tomography"). Hospitals
// attach items of a definition with a per-hospital value.
type Equipment struct {
	ID           int64
	Name         string
	Type         string
	DefaultValue string
}

// HospitalEquipment is one hospital's item of an equipment definition:
// the definition identity plus the hospital's current value for it.
type HospitalEquipment struct {
	HospitalID    int64
	EquipmentID   int64
	EquipmentName string
	EquipmentType string
	Value         string
	Comment       string
	UpdatedBy     string
	UpdatedOn     time.Time
}

// Call statuses.
const (
	CallStatusPending = "P"
	CallStatusStarted = "S"
	CallStatusEnded   = "E"
)

// Call is a dispatch request.
type Call struct {
	ID        int64
	Status    string
	Priority  string
	Details   string
	UpdatedBy string
	UpdatedOn time.Time
}

// AmbulancePermission grants a user access to one ambulance.
type AmbulancePermission struct {
	AmbulanceID int64  `json:"ambulance_id"`
	Identifier  string `json:"identifier"`
	CanRead     bool   `json:"can_read"`
	CanWrite    bool   `json:"can_write"`
}

// HospitalPermission grants a user access to one hospital.
type HospitalPermission struct {
	HospitalID int64  `json:"hospital_id"`
	Name       string `json:"name"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
}

// Profile is a user's view of the system: which ambulances and hospitals
// they may read or control.
type Profile struct {
	Username   string
	Ambulances []AmbulancePermission
	Hospitals  []HospitalPermission
}

// Settings is the global application settings snapshot mirrored to the
// broker so clients can label status and capability codes.
type Settings struct {
	AmbulanceStatus     map[string]string
	AmbulanceCapability map[string]string
	EquipmentType       map[string]string
	Defaults            SettingsDefaults
}

// SettingsDefaults carries the default map center and related values.
type SettingsDefaults struct {
	Location Location
}

// DefaultSettings returns the settings snapshot published at startup.
func DefaultSettings() *Settings {
	return &Settings{
		AmbulanceStatus: map[string]string{
			StatusUnknown:       "Unknown",
			StatusAvailable:     "Available",
			StatusOutOfService:  "Out of service",
			StatusPatientBound:  "Patient bound",
			StatusAtPatient:     "At patient",
			StatusHospitalBound: "Hospital bound",
			StatusAtHospital:    "At hospital",
		},
		AmbulanceCapability: map[string]string{
			CapabilityBasic:    "Basic",
			CapabilityAdvanced: "Advanced",
			CapabilityRescue:   "Rescue",
		},
		EquipmentType: map[string]string{
			EquipmentTypeBoolean: "Boolean",
			EquipmentTypeInteger: "Integer",
			EquipmentTypeString:  "String",
		},
	}
}
