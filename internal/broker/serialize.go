package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openems/dispatch-core/internal/entity"
)

// Serializable produces the wire payload published to the broker.
// Snapshots are built fresh from the entity at publish time; they are
// never cached or reused across publishes.
type Serializable interface {
	WirePayload() ([]byte, error)
}

// AmbulanceSnapshot is the wire form of one ambulance's state.
type AmbulanceSnapshot struct {
	ID                int64           `json:"id"`
	Identifier        string          `json:"identifier"`
	Capability        string          `json:"capability"`
	Status            string          `json:"status"`
	Orientation       float64         `json:"orientation"`
	Location          entity.Location `json:"location"`
	LocationTimestamp string          `json:"location_timestamp,omitempty"`
	Comment           string          `json:"comment,omitempty"`
	UpdatedBy         string          `json:"updated_by,omitempty"`
	UpdatedOn         string          `json:"updated_on,omitempty"`
}

// NewAmbulanceSnapshot builds the wire snapshot for an ambulance.
func NewAmbulanceSnapshot(a *entity.Ambulance) *AmbulanceSnapshot {
	return &AmbulanceSnapshot{
		ID:                a.ID,
		Identifier:        a.Identifier,
		Capability:        a.Capability,
		Status:            a.Status,
		Orientation:       a.Orientation,
		Location:          a.Location,
		LocationTimestamp: wireTime(a.LocationTimestamp),
		Comment:           a.Comment,
		UpdatedBy:         a.UpdatedBy,
		UpdatedOn:         wireTime(a.UpdatedOn),
	}
}

// WirePayload implements Serializable.
func (s *AmbulanceSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("ambulance", s)
}

// HospitalSnapshot is the wire form of one hospital's state.
type HospitalSnapshot struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address,omitempty"`
	Comment   string          `json:"comment,omitempty"`
	Location  entity.Location `json:"location"`
	UpdatedBy string          `json:"updated_by,omitempty"`
	UpdatedOn string          `json:"updated_on,omitempty"`
}

// NewHospitalSnapshot builds the wire snapshot for a hospital.
func NewHospitalSnapshot(h *entity.Hospital) *HospitalSnapshot {
	return &HospitalSnapshot{
		ID:        h.ID,
		Name:      h.Name,
		Address:   h.Address,
		Comment:   h.Comment,
		Location:  h.Location,
		UpdatedBy: h.UpdatedBy,
		UpdatedOn: wireTime(h.UpdatedOn),
	}
}

// WirePayload implements Serializable.
func (s *HospitalSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("hospital", s)
}

// EquipmentValueSnapshot is the wire form of one hospital equipment item.
// Value goes out exactly as stored, as a string: the Type field tells
// consumers how to interpret it, and re-encoding would lose forms like a
// leading zero.
type EquipmentValueSnapshot struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	Comment   string `json:"comment,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
	UpdatedOn string `json:"updated_on,omitempty"`
}

// NewEquipmentValueSnapshot builds the wire snapshot for an equipment item.
func NewEquipmentValueSnapshot(item *entity.HospitalEquipment) *EquipmentValueSnapshot {
	return &EquipmentValueSnapshot{
		Name:      item.EquipmentName,
		Type:      item.EquipmentType,
		Value:     item.Value,
		Comment:   item.Comment,
		UpdatedBy: item.UpdatedBy,
		UpdatedOn: wireTime(item.UpdatedOn),
	}
}

// WirePayload implements Serializable.
func (s *EquipmentValueSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("equipment value", s)
}

// MetadataEntry is one equipment definition in a hospital's metadata.
type MetadataEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// HospitalMetadataSnapshot lists the equipment definitions a hospital
// holds. Clients use it to discover the per-item value topics.
type HospitalMetadataSnapshot struct {
	HospitalID int64           `json:"hospital_id"`
	Equipment  []MetadataEntry `json:"equipment"`
}

// NewHospitalMetadataSnapshot builds the metadata snapshot from a
// hospital's current equipment items. The entry list is always non-nil so
// a hospital without items serializes as an empty array, not null.
func NewHospitalMetadataSnapshot(hospitalID int64, items []entity.HospitalEquipment) *HospitalMetadataSnapshot {
	entries := make([]MetadataEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, MetadataEntry{Name: item.EquipmentName, Type: item.EquipmentType})
	}
	return &HospitalMetadataSnapshot{HospitalID: hospitalID, Equipment: entries}
}

// WirePayload implements Serializable.
func (s *HospitalMetadataSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("hospital metadata", s)
}

// CallSnapshot is the wire form of one dispatch call.
type CallSnapshot struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Priority  string `json:"priority,omitempty"`
	Details   string `json:"details,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
	UpdatedOn string `json:"updated_on,omitempty"`
}

// NewCallSnapshot builds the wire snapshot for a call.
func NewCallSnapshot(c *entity.Call) *CallSnapshot {
	return &CallSnapshot{
		ID:        c.ID,
		Status:    c.Status,
		Priority:  c.Priority,
		Details:   c.Details,
		UpdatedBy: c.UpdatedBy,
		UpdatedOn: wireTime(c.UpdatedOn),
	}
}

// WirePayload implements Serializable.
func (s *CallSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("call", s)
}

// ProfileSnapshot is the wire form of one user's permissions.
type ProfileSnapshot struct {
	Username   string                       `json:"username"`
	Ambulances []entity.AmbulancePermission `json:"ambulances"`
	Hospitals  []entity.HospitalPermission  `json:"hospitals"`
}

// NewProfileSnapshot builds the wire snapshot for a user profile.
// Permission lists are always non-nil so they serialize as arrays.
func NewProfileSnapshot(p *entity.Profile) *ProfileSnapshot {
	s := &ProfileSnapshot{
		Username:   p.Username,
		Ambulances: p.Ambulances,
		Hospitals:  p.Hospitals,
	}
	if s.Ambulances == nil {
		s.Ambulances = []entity.AmbulancePermission{}
	}
	if s.Hospitals == nil {
		s.Hospitals = []entity.HospitalPermission{}
	}
	return s
}

// WirePayload implements Serializable.
func (s *ProfileSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("profile", s)
}

// SettingsSnapshot is the wire form of the global settings.
type SettingsSnapshot struct {
	AmbulanceStatus     map[string]string `json:"ambulance_status"`
	AmbulanceCapability map[string]string `json:"ambulance_capability"`
	EquipmentType       map[string]string `json:"equipment_type"`
	Defaults            struct {
		Location entity.Location `json:"location"`
	} `json:"defaults"`
}

// NewSettingsSnapshot builds the wire snapshot for the global settings.
func NewSettingsSnapshot(s *entity.Settings) *SettingsSnapshot {
	snap := &SettingsSnapshot{
		AmbulanceStatus:     s.AmbulanceStatus,
		AmbulanceCapability: s.AmbulanceCapability,
		EquipmentType:       s.EquipmentType,
	}
	snap.Defaults.Location = s.Defaults.Location
	return snap
}

// WirePayload implements Serializable.
func (s *SettingsSnapshot) WirePayload() ([]byte, error) {
	return marshalSnapshot("settings", s)
}

// marshalSnapshot encodes a snapshot, naming the kind in the error.
func marshalSnapshot(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing %s snapshot: %w", kind, err)
	}
	return data, nil
}

// wireTime formats a timestamp for the wire; zero times are omitted.
func wireTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
