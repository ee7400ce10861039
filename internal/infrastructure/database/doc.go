// Package database provides the SQLite system of record for Dispatch Core.
//
// The relational store is the authoritative source of dispatch state; the
// MQTT broker carries only a derived, best-effort view of it. This package
// manages the connection (WAL mode, busy timeout, single-writer pool),
// health checks, and embedded schema migrations.
package database
