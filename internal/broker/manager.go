package broker

import (
	"strconv"
	"sync"

	"github.com/openems/dispatch-core/internal/infrastructure/config"
	"github.com/openems/dispatch-core/internal/infrastructure/logging"
	"github.com/openems/dispatch-core/internal/infrastructure/mqtt"
)

// Manager owns the process's broker connection and hands out the publish
// façade. Construct one in main and inject it; there is no package-level
// instance.
//
// The connection is established lazily on the first Facade() call: the
// first caller pays the bounded connect wait, every later caller reuses
// the outcome. When the connect attempt fails or times out, the manager
// logs once and stays permanently degraded: Facade() returns a no-op
// façade, Active() reports false, and no retry is attempted for the rest
// of the process lifetime.
type Manager struct {
	cfg config.MQTTConfig
	log *logging.Logger

	once   sync.Once
	client *mqtt.Client
	facade *Facade

	mu     sync.Mutex
	closed bool
}

// NewManager validates the broker configuration and creates a manager.
// No connection is attempted yet. Invalid configuration is startup-fatal
// and returned as a *ConfigurationError.
func NewManager(cfg config.MQTTConfig, log *logging.Logger) (*Manager, error) {
	if err := validateManagerConfig(cfg); err != nil {
		return nil, err
	}
	return &Manager{
		cfg: cfg,
		log: log.With("component", "broker"),
	}, nil
}

// validateManagerConfig checks the options the manager itself depends on.
// The transport re-validates listener details on connect.
func validateManagerConfig(cfg config.MQTTConfig) error {
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return &ConfigurationError{Field: "mqtt.qos", Reason: "must be 0, 1, or 2"}
	}
	if cfg.Client.IDPrefix == "" {
		return &ConfigurationError{Field: "mqtt.client.id_prefix", Reason: "is required"}
	}

	listener := cfg.Broker.Plain
	switch cfg.Broker.Transport {
	case config.TransportTCP, "":
	case config.TransportTLS:
		listener = cfg.Broker.TLS
	case config.TransportWebsocket:
		listener = cfg.Broker.Websocket
	default:
		return &ConfigurationError{Field: "mqtt.broker.transport", Reason: "must be tcp, ssl, or ws"}
	}
	if listener.Host == "" {
		return &ConfigurationError{Field: "mqtt.broker", Reason: "listener host is required"}
	}
	if listener.Port <= 0 || listener.Port > 65535 {
		return &ConfigurationError{Field: "mqtt.broker", Reason: "listener port " + strconv.Itoa(listener.Port) + " is out of range"}
	}
	return nil
}

// Facade returns the publish façade, connecting to the broker on first
// use. It never returns nil and never returns an error: a broker that is
// down at startup yields a degraded no-op façade.
func (m *Manager) Facade() *Facade {
	m.once.Do(m.connect)
	return m.facade
}

// Active reports whether the manager holds a live broker connection.
// It is false before the first Facade() call and permanently false after
// a failed connect.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil && !m.closed && m.client.IsConnected()
}

// connect performs the one connection attempt of the manager's lifetime.
func (m *Manager) connect() {
	client, err := mqtt.Connect(m.cfg)
	if err != nil {
		m.log.Error("Broker unreachable; continuing without state mirror",
			"error", err,
		)
		m.facade = NewDegradedFacade(m.log)
		return
	}

	client.SetLogger(m.log)
	client.SetOnDisconnect(func(err error) {
		m.log.Warn("Broker connection lost; automatic reconnect in progress", "error", err)
	})
	client.SetOnConnect(func() {
		m.log.Info("Broker connection established")
	})

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	m.facade = NewFacade(client, byte(m.cfg.QoS), m.log)
	m.log.Info("Broker state mirror active",
		"transport", m.cfg.Broker.Transport,
		"qos", m.cfg.QoS,
	)
}

// Client returns the underlying transport client, or nil when the manager
// is degraded or not yet connected. Used for health checks.
func (m *Manager) Client() *mqtt.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// Close disconnects from the broker if a connection was established.
// Safe to call whether or not Facade() was ever invoked, and more than
// once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
