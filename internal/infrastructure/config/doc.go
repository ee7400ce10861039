// Package config loads and validates Dispatch Core configuration.
//
// Configuration is sourced in three layers, later layers overriding
// earlier ones:
//  1. Hardcoded defaults
//  2. A YAML configuration file
//  3. DISPATCH_* environment variables
//
// The MQTT section describes all three broker listeners (plain, TLS,
// websocket); the transport field selects the one this process uses.
// Credentials and the database path are typically supplied through the
// environment rather than the file.
package config
