package broker

import (
	"github.com/openems/dispatch-core/internal/entity"
	"github.com/openems/dispatch-core/internal/infrastructure/logging"
	"github.com/openems/dispatch-core/internal/infrastructure/mqtt"
)

// Transport is the broker connection the façade publishes through. It is
// satisfied by *mqtt.Client; tests substitute a fake recording retained
// state per topic.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) (mqtt.MessageID, error)
	IsConnected() bool
}

// Facade exposes one publish and one remove operation per tracked entity
// kind. Every publish is retained so the broker holds current state;
// removal publishes a nil retained payload, which clears the topic and is
// idempotent.
//
// A degraded façade (no broker at startup) turns every operation into a
// successful no-op: state changes must commit whether or not the mirror
// is reachable. Transport failures on an active façade are logged and
// swallowed for the same reason; only serialization and topic errors
// reach the caller.
type Facade struct {
	transport Transport
	topics    Topics
	qos       byte
	log       *logging.Logger
	degraded  bool
}

// NewFacade creates an active façade publishing through the transport.
func NewFacade(transport Transport, qos byte, log *logging.Logger) *Facade {
	return &Facade{transport: transport, qos: qos, log: log}
}

// NewDegradedFacade creates a façade whose every operation is a no-op.
func NewDegradedFacade(log *logging.Logger) *Facade {
	return &Facade{log: log, degraded: true}
}

// Degraded reports whether the façade operates in no-op mode.
func (f *Facade) Degraded() bool {
	return f.degraded
}

// PublishAmbulance publishes an ambulance's current state.
func (f *Facade) PublishAmbulance(a *entity.Ambulance) error {
	return f.publish(f.topics.AmbulanceData(a.ID), NewAmbulanceSnapshot(a))
}

// RemoveAmbulance clears an ambulance's retained state.
func (f *Facade) RemoveAmbulance(id int64) error {
	return f.remove(f.topics.AmbulanceData(id))
}

// PublishHospital publishes a hospital's current state.
func (f *Facade) PublishHospital(h *entity.Hospital) error {
	return f.publish(f.topics.HospitalData(h.ID), NewHospitalSnapshot(h))
}

// RemoveHospital clears a hospital's retained state and its metadata.
// Per-item equipment topics are cleared individually by their own
// removals before the hospital goes away.
func (f *Facade) RemoveHospital(id int64) error {
	if err := f.remove(f.topics.HospitalData(id)); err != nil {
		return err
	}
	return f.remove(f.topics.HospitalMetadata(id))
}

// PublishHospitalMetadata publishes the set of equipment definitions a
// hospital currently holds.
func (f *Facade) PublishHospitalMetadata(hospitalID int64, items []entity.HospitalEquipment) error {
	return f.publish(f.topics.HospitalMetadata(hospitalID), NewHospitalMetadataSnapshot(hospitalID, items))
}

// PublishEquipmentValue publishes one equipment item's current value.
// The equipment name is validated before it is embedded in the topic.
func (f *Facade) PublishEquipmentValue(item *entity.HospitalEquipment) error {
	if err := ValidateEquipmentName(item.EquipmentName); err != nil {
		return err
	}
	return f.publish(f.topics.HospitalEquipmentData(item.HospitalID, item.EquipmentName), NewEquipmentValueSnapshot(item))
}

// RemoveEquipmentValue clears one equipment item's retained value.
func (f *Facade) RemoveEquipmentValue(hospitalID int64, equipmentName string) error {
	if err := ValidateEquipmentName(equipmentName); err != nil {
		return err
	}
	return f.remove(f.topics.HospitalEquipmentData(hospitalID, equipmentName))
}

// PublishCall publishes a dispatch call's current state.
func (f *Facade) PublishCall(c *entity.Call) error {
	return f.publish(f.topics.CallData(c.ID), NewCallSnapshot(c))
}

// RemoveCall clears a call's retained state.
func (f *Facade) RemoveCall(id int64) error {
	return f.remove(f.topics.CallData(id))
}

// PublishProfile publishes a user's permission profile.
func (f *Facade) PublishProfile(p *entity.Profile) error {
	return f.publish(f.topics.UserProfile(p.Username), NewProfileSnapshot(p))
}

// RemoveProfile clears a user's retained profile.
func (f *Facade) RemoveProfile(username string) error {
	return f.remove(f.topics.UserProfile(username))
}

// PublishSettings publishes the global settings snapshot.
func (f *Facade) PublishSettings(s *entity.Settings) error {
	return f.publish(f.topics.Settings(), NewSettingsSnapshot(s))
}

// publish serializes a snapshot and publishes it retained. Transport
// failures are logged and swallowed; serialization failures surface.
func (f *Facade) publish(topic string, snapshot Serializable) error {
	if f.degraded {
		return nil
	}

	payload, err := snapshot.WirePayload()
	if err != nil {
		return err
	}

	if _, err := f.transport.Publish(topic, payload, f.qos, true); err != nil {
		f.logPublishFailure(topic, err)
	}
	return nil
}

// remove publishes a retained tombstone for the topic. Clearing an
// already-clear topic is a no-op on the broker side.
func (f *Facade) remove(topic string) error {
	if f.degraded {
		return nil
	}

	if _, err := f.transport.Publish(topic, nil, f.qos, true); err != nil {
		f.logPublishFailure(topic, err)
	}
	return nil
}

func (f *Facade) logPublishFailure(topic string, err error) {
	if f.log != nil {
		f.log.Warn("Broker publish failed; state mirror is stale until next change",
			"topic", topic,
			"error", err,
		)
	}
}
