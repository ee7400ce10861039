// Package broker mirrors the system of record onto an MQTT broker as
// retained messages, one topic per entity, so clients receive current
// state on subscribe and live updates thereafter.
//
// The pieces, from the storage layer outward:
//
//   - Bridge implements entity.ChangeNotifier and maps each storage
//     commit to broker publishes, including the hospital metadata
//     cascade on equipment membership changes.
//   - Facade exposes one publish and one remove operation per entity
//     kind. Removal is a retained tombstone (nil payload). A degraded
//     façade no-ops everything so commits never depend on the broker.
//   - Manager owns the single broker connection, established lazily on
//     first use; a failed connect degrades the process permanently.
//   - Topics builds the topic hierarchy; snapshot types in serialize.go
//     define the wire payloads.
//   - Inspector and Cleaner are diagnostic tools over the same transport
//     for dumping and wiping retained subtrees.
//
// Broker unavailability is deliberately non-fatal everywhere: the mirror
// is a derived view, and the database remains authoritative.
package broker
