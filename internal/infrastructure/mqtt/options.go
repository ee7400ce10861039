package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/openems/dispatch-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds the initial connection wait when the
	// configuration does not specify one.
	defaultConnectTimeout = 10 * time.Second

	// defaultAckTimeout is the maximum time a watcher waits for a publish
	// or subscribe acknowledgment before reporting the operation rejected.
	defaultAckTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// reconnectIntervalMin/Max bound the auto-reconnect backoff.
	reconnectIntervalMin = 1 * time.Second
	reconnectIntervalMax = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// validateBrokerConfig rejects malformed broker configuration before any
// network I/O is attempted.
func validateBrokerConfig(cfg config.MQTTConfig) error {
	listener := cfg.Broker.ActiveListener()
	if listener.Host == "" {
		return fmt.Errorf("%w: empty broker host", ErrInvalidConfig)
	}
	if listener.Port < 1 || listener.Port > 65535 {
		return fmt.Errorf("%w: broker port %d out of range", ErrInvalidConfig, listener.Port)
	}
	if cfg.Client.IDPrefix == "" {
		return fmt.Errorf("%w: empty client id prefix", ErrInvalidConfig)
	}
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return fmt.Errorf("%w: qos %d out of range", ErrInvalidConfig, cfg.QoS)
	}
	return nil
}

// buildClientOptions creates paho MQTT options from Dispatch Core config.
//
// This configures:
//   - Broker URL for the selected listener (tcp://, ssl://, or ws://)
//   - A per-process unique client ID (prefix + random suffix)
//   - Authentication credentials (if provided)
//   - Auto-reconnect with exponential backoff
//   - TLS configuration (for the ssl transport)
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	listener := cfg.Broker.ActiveListener()
	opts.AddBroker(brokerURL(cfg.Broker.Transport, listener))

	// The suffix guarantees two processes never collide on the same
	// broker session, even with identical configuration.
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.Client.IDPrefix, uuid.NewString()))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(cfg.Client.CleanSession)

	// Auto-reconnect after network loss. The initial connect attempt is
	// bounded separately; a broker that is down at startup puts the owner
	// into degraded mode instead of retrying forever.
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(reconnectIntervalMax)

	timeout := cfg.GetConnectTimeout()
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	opts.SetConnectTimeout(timeout)

	keepAlive := cfg.GetKeepAlive()
	if keepAlive <= 0 {
		keepAlive = 60 * time.Second
	}
	opts.SetKeepAlive(keepAlive)

	if cfg.Broker.Transport == config.TransportTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// brokerURL builds the connection URL for the selected listener variant.
func brokerURL(transport string, listener config.MQTTListenerConfig) string {
	switch transport {
	case config.TransportTLS:
		return fmt.Sprintf("ssl://%s:%d", listener.Host, listener.Port)
	case config.TransportWebsocket:
		return fmt.Sprintf("ws://%s:%d/mqtt", listener.Host, listener.Port)
	default:
		return fmt.Sprintf("tcp://%s:%d", listener.Host, listener.Port)
	}
}
