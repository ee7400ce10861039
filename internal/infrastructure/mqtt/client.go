package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/openems/dispatch-core/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang with Dispatch Core-specific functionality.
//
// It provides connection management, fire-and-forget publishing with
// acknowledgment tracking, subscription handling, and automatic
// reconnection with exponential backoff.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// pending tracks in-flight publishes and subscribes by message id.
	pending *pendingOps

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Callbacks for connection and delivery events (optional).
	onConnect    func()
	onDisconnect func(err error)
	onError      func(err error)
	callbackMu   sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked on the paho network-processing context and must not
// block for unbounded time or they stall delivery of all other callbacks.
//
// Parameters:
//   - topic: The topic the message was received on (wildcards expanded)
//   - payload: The raw message payload (empty for tombstones)
//   - retained: Whether this is a broker-retained message
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte, retained bool) error

// Connect establishes a connection to the MQTT broker.
//
// It validates the configuration locally (empty host, invalid port fail
// immediately with ErrInvalidConfig), builds connection options for the
// selected listener variant, and waits for the broker's connection
// acknowledgment with a bounded timeout. A non-zero acknowledgment code is
// returned as a *ConnectError; the caller decides whether to retry or
// degrade.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrInvalidConfig, or a *ConnectError wrapping ErrConnectionFailed
func Connect(cfg config.MQTTConfig) (*Client, error) {
	if err := validateBrokerConfig(cfg); err != nil {
		return nil, err
	}

	opts := buildClientOptions(cfg)

	c := &Client{
		cfg:           cfg,
		options:       opts,
		pending:       newPendingOps(),
		subscriptions: make(map[string]subscription),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)

	timeout := cfg.GetConnectTimeout()
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	token := c.client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, &ConnectError{Err: fmt.Errorf("%w after %v", ErrTimeout, timeout)}
	}
	if err := token.Error(); err != nil {
		return nil, &ConnectError{Code: connackCode(err), Err: err}
	}

	// Set connected state immediately after successful connection.
	// The OnConnectHandler callback runs asynchronously and may not have
	// executed yet, so we set it here to ensure IsConnected() returns true.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return c, nil
}

// connackCode maps a paho connect error back to the broker's CONNACK
// return code, or 0 when the failure was local.
func connackCode(err error) byte {
	for code, known := range packets.ConnErrors {
		if code != 0 && errors.Is(err, known) {
			return code
		}
	}
	return 0
}

// handleConnect is called when the connection is established.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.restoreSubscriptions()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		// Re-subscribe (ignore errors during reconnection)
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
}

// Close gracefully disconnects from the MQTT broker.
//
// Disconnection waits a quiesce period for pending operations. Close is
// safe to call on an already-disconnected client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// HealthCheck verifies the MQTT connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// PendingOperations returns the number of publishes and subscribes still
// awaiting acknowledgment. Useful for monitoring and tests.
func (c *Client) PendingOperations() int {
	return c.pending.count()
}

// SetOnConnect sets a callback to be invoked when connection is established.
// This is called on initial connect and on every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback to be invoked when connection is lost.
// The error parameter describes why the connection was lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetOnError sets a callback for asynchronous delivery failures: rejected
// publishes, failed subscribes, and protocol violations. These surface
// after the originating call has already returned.
func (c *Client) SetOnError(callback func(err error)) {
	c.callbackMu.Lock()
	c.onError = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// reportError logs an asynchronous failure and forwards it to the error
// callback if one is set. Protocol violations and rejected publishes pass
// through here; they are loud but non-fatal.
func (c *Client) reportError(err error) {
	if logger := c.getLogger(); logger != nil {
		logger.Error("MQTT asynchronous failure", "error", err)
	}

	c.callbackMu.RLock()
	callback := c.onError
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// ackPending resolves a pending operation by id. An id with no matching
// entry is a protocol violation and is reported, never dropped.
func (c *Client) ackPending(id MessageID) {
	if _, err := c.pending.ack(id); err != nil {
		c.reportError(err)
	}
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload(), msg.Retained()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}
