package broker

import (
	"fmt"
	"strings"
)

// Topics builds the broker's retained-state topic names. All builders are
// pure functions of their arguments; two distinct entities never map to
// the same topic.
//
// Topic layout:
//
//	ambulance/{id}/data                    ambulance state
//	hospital/{id}/data                     hospital state
//	hospital/{id}/metadata                 equipment definitions held
//	hospital/{id}/equipment/{name}/data    one equipment item's value
//	call/{id}/data                         dispatch call state
//	user/{username}/profile                per-user permissions
//	settings                               global settings snapshot
type Topics struct{}

// AmbulanceData returns the state topic for one ambulance.
func (Topics) AmbulanceData(id int64) string {
	return fmt.Sprintf("ambulance/%d/data", id)
}

// HospitalData returns the state topic for one hospital.
func (Topics) HospitalData(id int64) string {
	return fmt.Sprintf("hospital/%d/data", id)
}

// HospitalMetadata returns the metadata topic for one hospital. It carries
// the set of equipment definitions the hospital holds, so clients can
// discover the per-item topics without wildcard scans.
func (Topics) HospitalMetadata(id int64) string {
	return fmt.Sprintf("hospital/%d/metadata", id)
}

// HospitalEquipmentData returns the value topic for one hospital's
// equipment item. The name must have passed ValidateEquipmentName.
func (Topics) HospitalEquipmentData(hospitalID int64, equipmentName string) string {
	return fmt.Sprintf("hospital/%d/equipment/%s/data", hospitalID, equipmentName)
}

// CallData returns the state topic for one dispatch call.
func (Topics) CallData(id int64) string {
	return fmt.Sprintf("call/%d/data", id)
}

// UserProfile returns the profile topic for one user.
func (Topics) UserProfile(username string) string {
	return fmt.Sprintf("user/%s/profile", username)
}

// Settings returns the global settings topic.
func (Topics) Settings() string {
	return "settings"
}

// AmbulanceSubtree returns the wildcard filter covering all ambulance topics.
func (Topics) AmbulanceSubtree() string {
	return "ambulance/#"
}

// HospitalSubtree returns the wildcard filter covering all hospital topics.
func (Topics) HospitalSubtree() string {
	return "hospital/#"
}

// Subtree returns the wildcard filter covering everything under base.
// An empty base covers the whole broker.
func (Topics) Subtree(base string) string {
	if base == "" {
		return "#"
	}
	return strings.TrimRight(base, "/") + "/#"
}

// ValidateEquipmentName checks that an equipment name can be embedded in a
// topic. Names containing topic separators or wildcard characters would
// corrupt the hierarchy and are rejected.
func ValidateEquipmentName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEquipmentName)
	}
	if strings.ContainsAny(name, "/+#") {
		return fmt.Errorf("%w: %q contains a topic separator or wildcard", ErrInvalidEquipmentName, name)
	}
	return nil
}
