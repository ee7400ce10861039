package mqtt

import (
	"errors"
	"fmt"
)

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrInvalidConfig is returned when broker configuration is malformed
	// (empty host, out-of-range port). Detected locally, before any network I/O.
	ErrInvalidConfig = errors.New("mqtt: invalid broker configuration")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrProtocolViolation is returned when an acknowledgment arrives for an
	// operation this client never issued. It indicates a transport-layer bug
	// and is logged loudly rather than swallowed.
	ErrProtocolViolation = errors.New("mqtt: protocol violation")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("mqtt: operation timed out")
)

// ConnectError reports a connection attempt rejected by the broker.
// Code carries the broker's CONNACK return code when it can be determined
// (0 when the failure was local, e.g. a dial timeout).
type ConnectError struct {
	Code byte
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("mqtt: connection refused by broker (code %d): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("mqtt: connection failed: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return ErrConnectionFailed }

// ProtocolViolation reports an acknowledgment for a message id with no
// matching pending operation.
type ProtocolViolation struct {
	ID MessageID
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("mqtt: unmatched acknowledgment for message id %d", e.ID)
}

func (e *ProtocolViolation) Unwrap() error { return ErrProtocolViolation }

// PublishRejected reports a publish the broker refused or that timed out
// waiting for its acknowledgment. Reported through the error callback;
// never returned to the publisher, which has already moved on.
type PublishRejected struct {
	Topic string
	Err   error
}

func (e *PublishRejected) Error() string {
	return fmt.Sprintf("mqtt: publish to %q rejected: %v", e.Topic, e.Err)
}

func (e *PublishRejected) Unwrap() error { return ErrPublishFailed }
