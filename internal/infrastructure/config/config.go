package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Dispatch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig contains service-level identification settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker  MQTTBrokerConfig  `yaml:"broker"`
	Auth    MQTTAuthConfig    `yaml:"auth"`
	Client  MQTTClientConfig  `yaml:"client"`
	QoS     int               `yaml:"qos"`
	Connect MQTTConnectConfig `yaml:"connect"`
}

// MQTTBrokerConfig describes the broker's listeners. The broker exposes
// separate plain, TLS, and websocket listeners; Transport selects which
// one this process connects to.
type MQTTBrokerConfig struct {
	// Transport is the listener variant to use: "tcp", "ssl", or "ws".
	Transport string `yaml:"transport"`

	Plain     MQTTListenerConfig `yaml:"plain"`
	TLS       MQTTListenerConfig `yaml:"tls"`
	Websocket MQTTListenerConfig `yaml:"websocket"`

	// KeepAlive is the keepalive interval in seconds.
	KeepAlive int `yaml:"keepalive"`
}

// MQTTListenerConfig is a host/port pair for one broker listener.
type MQTTListenerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTClientConfig contains client session settings.
//
// IDPrefix is combined with a per-process random suffix so that two
// processes never collide on the same broker session.
type MQTTClientConfig struct {
	IDPrefix     string `yaml:"id_prefix"`
	CleanSession bool   `yaml:"clean_session"`
}

// MQTTConnectConfig bounds the initial connection attempt.
type MQTTConnectConfig struct {
	// Timeout is the maximum time in seconds to wait for the broker's
	// connection acknowledgment before giving up.
	Timeout int `yaml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Transport scheme names recognised in MQTTBrokerConfig.Transport.
const (
	TransportTCP       = "tcp"
	TransportTLS       = "ssl"
	TransportWebsocket = "ws"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DISPATCH_SECTION_KEY
// For example: DISPATCH_DATABASE_PATH, DISPATCH_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "dispatch-core",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/dispatch.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Transport: TransportTCP,
				Plain:     MQTTListenerConfig{Host: "localhost", Port: 1883},
				TLS:       MQTTListenerConfig{Host: "localhost", Port: 8883},
				Websocket: MQTTListenerConfig{Host: "localhost", Port: 8884},
				KeepAlive: 60,
			},
			Client: MQTTClientConfig{
				IDPrefix:     "dispatch-core",
				CleanSession: true,
			},
			QoS: 2,
			Connect: MQTTConnectConfig{
				Timeout: 10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DISPATCH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("DISPATCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT broker. Plain, TLS, and websocket listeners each have their
	// own host/port pair.
	if v := os.Getenv("DISPATCH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Plain.Host = v
	}
	if v := os.Getenv("DISPATCH_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Plain.Port = port
		}
	}
	if v := os.Getenv("DISPATCH_MQTT_SSL_HOST"); v != "" {
		cfg.MQTT.Broker.TLS.Host = v
	}
	if v := os.Getenv("DISPATCH_MQTT_SSL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.TLS.Port = port
		}
	}
	if v := os.Getenv("DISPATCH_MQTT_WS_HOST"); v != "" {
		cfg.MQTT.Broker.Websocket.Host = v
	}
	if v := os.Getenv("DISPATCH_MQTT_WS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Websocket.Port = port
		}
	}
	if v := os.Getenv("DISPATCH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DISPATCH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("DISPATCH_MQTT_CLIENT_ID_PREFIX"); v != "" {
		cfg.MQTT.Client.IDPrefix = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.Name == "" {
		errs = append(errs, "service.name is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	switch c.MQTT.Broker.Transport {
	case TransportTCP, TransportTLS, TransportWebsocket:
	default:
		errs = append(errs, "mqtt.broker.transport must be tcp, ssl, or ws")
	}

	listener := c.MQTT.Broker.ActiveListener()
	if listener.Host == "" {
		errs = append(errs, "mqtt broker host is required for the selected transport")
	}
	if listener.Port < 1 || listener.Port > 65535 {
		errs = append(errs, "mqtt broker port must be between 1 and 65535")
	}

	if c.MQTT.Broker.KeepAlive < 1 {
		errs = append(errs, "mqtt.broker.keepalive must be at least 1 second")
	}

	if c.MQTT.Client.IDPrefix == "" {
		errs = append(errs, "mqtt.client.id_prefix is required")
	}

	if c.MQTT.Connect.Timeout < 1 {
		errs = append(errs, "mqtt.connect.timeout must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ActiveListener returns the host/port pair for the selected transport.
// Unknown transports fall back to the plain listener; Validate rejects
// them before a client is constructed.
func (b MQTTBrokerConfig) ActiveListener() MQTTListenerConfig {
	switch b.Transport {
	case TransportTLS:
		return b.TLS
	case TransportWebsocket:
		return b.Websocket
	default:
		return b.Plain
	}
}

// GetKeepAlive returns the MQTT keepalive interval as a Duration.
func (m MQTTConfig) GetKeepAlive() time.Duration {
	return time.Duration(m.Broker.KeepAlive) * time.Second
}

// GetConnectTimeout returns the bounded connect wait as a Duration.
func (m MQTTConfig) GetConnectTimeout() time.Duration {
	return time.Duration(m.Connect.Timeout) * time.Second
}
