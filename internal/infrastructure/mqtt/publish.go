package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish enqueues a message to the specified MQTT topic.
//
// The call is fire-and-forget from the caller's perspective: it returns a
// locally assigned MessageID as soon as the message is enqueued, without
// waiting for the broker's acknowledgment. A watcher goroutine tracks the
// acknowledgment; a rejected or timed-out publish is reported through the
// error callback as *PublishRejected.
//
// A nil payload with retained=true is the tombstone convention: it clears
// the broker's retained message for the topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "ambulance/7/data")
//   - payload: The message payload (JSON, max 1MB; nil for tombstones)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - MessageID: Local id of the in-flight publish
//   - error: Synchronous rejection only (bad arguments, not connected)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) (MessageID, error) {
	if topic == "" {
		return 0, ErrInvalidTopic
	}
	if qos > maxQoS {
		return 0, ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return 0, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return 0, ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	id := c.pending.track(opPublish, topic)
	go c.watchPublish(id, topic, token)

	return id, nil
}

// PublishTombstone clears the broker's retained message for a topic by
// publishing a nil retained payload.
func (c *Client) PublishTombstone(topic string, qos byte) (MessageID, error) {
	return c.Publish(topic, nil, qos, true)
}

// watchPublish waits for the broker's acknowledgment of an in-flight
// publish and resolves its pending entry. Runs on its own goroutine; the
// publisher has already returned.
func (c *Client) watchPublish(id MessageID, topic string, token pahomqtt.Token) {
	switch {
	case !token.WaitTimeout(defaultAckTimeout):
		c.reportError(&PublishRejected{Topic: topic, Err: fmt.Errorf("%w after %v", ErrTimeout, defaultAckTimeout)})
	case token.Error() != nil:
		c.reportError(&PublishRejected{Topic: topic, Err: token.Error()})
	}

	c.ackPending(id)
}
