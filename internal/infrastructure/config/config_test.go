package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  name: "test-dispatch"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    transport: tcp
    plain:
      host: "broker.local"
      port: 1883
    keepalive: 60
  client:
    id_prefix: "test-client"
  qos: 2
  connect:
    timeout: 10
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "test-dispatch" {
		t.Errorf("Service.Name = %q, want %q", cfg.Service.Name, "test-dispatch")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Plain.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Plain.Host = %q, want %q", cfg.MQTT.Broker.Plain.Host, "broker.local")
	}

	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("DISPATCH_MQTT_HOST", "override.local")
	t.Setenv("DISPATCH_MQTT_PORT", "2883")
	t.Setenv("DISPATCH_MQTT_USERNAME", "dispatcher")
	t.Setenv("DISPATCH_MQTT_CLIENT_ID_PREFIX", "override-client")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Plain.Host != "override.local" {
		t.Errorf("Plain.Host = %q, want %q", cfg.MQTT.Broker.Plain.Host, "override.local")
	}
	if cfg.MQTT.Broker.Plain.Port != 2883 {
		t.Errorf("Plain.Port = %d, want 2883", cfg.MQTT.Broker.Plain.Port)
	}
	if cfg.MQTT.Auth.Username != "dispatcher" {
		t.Errorf("Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "dispatcher")
	}
	if cfg.MQTT.Client.IDPrefix != "override-client" {
		t.Errorf("Client.IDPrefix = %q, want %q", cfg.MQTT.Client.IDPrefix, "override-client")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return defaultConfig()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid transport",
			mutate:  func(c *Config) { c.MQTT.Broker.Transport = "carrier-pigeon" },
			wantErr: true,
		},
		{
			name:    "empty broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Plain.Host = "" },
			wantErr: true,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.MQTT.Broker.Plain.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing client id prefix",
			mutate:  func(c *Config) { c.MQTT.Client.IDPrefix = "" },
			wantErr: true,
		},
		{
			name:    "zero connect timeout",
			mutate:  func(c *Config) { c.MQTT.Connect.Timeout = 0 },
			wantErr: true,
		},
		{
			name: "tls transport validates tls listener",
			mutate: func(c *Config) {
				c.MQTT.Broker.Transport = TransportTLS
				c.MQTT.Broker.TLS.Host = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMQTTBrokerConfig_ActiveListener(t *testing.T) {
	broker := MQTTBrokerConfig{
		Plain:     MQTTListenerConfig{Host: "plain", Port: 1883},
		TLS:       MQTTListenerConfig{Host: "tls", Port: 8883},
		Websocket: MQTTListenerConfig{Host: "ws", Port: 8884},
	}

	tests := []struct {
		transport string
		wantHost  string
	}{
		{TransportTCP, "plain"},
		{TransportTLS, "tls"},
		{TransportWebsocket, "ws"},
		{"", "plain"},
	}

	for _, tt := range tests {
		broker.Transport = tt.transport
		if got := broker.ActiveListener().Host; got != tt.wantHost {
			t.Errorf("ActiveListener() with transport %q = %q, want %q", tt.transport, got, tt.wantHost)
		}
	}
}

func TestMQTTConfig_Durations(t *testing.T) {
	cfg := MQTTConfig{
		Broker:  MQTTBrokerConfig{KeepAlive: 30},
		Connect: MQTTConnectConfig{Timeout: 5},
	}

	if got := cfg.GetKeepAlive(); got != 30*time.Second {
		t.Errorf("GetKeepAlive() = %v, want 30s", got)
	}
	if got := cfg.GetConnectTimeout(); got != 5*time.Second {
		t.Errorf("GetConnectTimeout() = %v, want 5s", got)
	}
}
