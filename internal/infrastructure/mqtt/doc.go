// Package mqtt provides MQTT client connectivity for Dispatch Core.
//
// This package manages:
//   - Connection to the broker over plain TCP, TLS, or websocket listeners
//   - Fire-and-forget publishing with acknowledgment tracking
//   - Topic subscriptions with wildcard support
//   - Automatic reconnection with exponential backoff
//   - Connection health monitoring
//
// # Architecture
//
// Dispatch Core mirrors dispatch state (ambulances, hospitals, equipment,
// profiles) onto broker topics. Retained messages carry the current state
// of each entity; tombstones (nil retained payloads) delete it. The
// relational store remains the system of record; the broker is a derived,
// best-effort view consumed by dashboards and mobile clients.
//
//	Dispatch Core → MQTT Broker → dashboards / mobile clients
//
// # Delivery semantics
//
// Publish and Subscribe are non-blocking: they enqueue the operation,
// register it in a pending-operation table, and return a local MessageID.
// Watcher goroutines resolve each entry when the broker acknowledges it.
// Every acknowledgment must match a pending entry; an unmatched id is a
// protocol violation reported through the error callback, never dropped.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    // degrade: the rest of the system keeps working without the broker
//	}
//	defer client.Close()
//
//	id, err := client.Publish("ambulance/7/data", payload, 2, true)
package mqtt
