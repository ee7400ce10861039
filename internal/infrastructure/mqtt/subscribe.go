package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers a handler for messages on the specified topic.
//
// Topics can include MQTT wildcards:
//   - + (single-level): "hospital/+/metadata" matches any hospital
//   - # (multi-level): "hospital/4/#" matches the whole hospital subtree
//
// Like Publish, the call is non-blocking: it returns a MessageID once the
// subscribe is enqueued and a watcher goroutine tracks the broker's grant.
// A failed subscribe is reported through the error callback.
//
// Subscriptions are automatically restored if the connection is lost and
// reconnected (tracked internally).
//
// Parameters:
//   - topic: The topic pattern to subscribe to
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback function invoked for each message
//
// Returns:
//   - MessageID: Local id of the in-flight subscribe
//   - error: Synchronous rejection only (bad arguments, not connected)
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) (MessageID, error) {
	if topic == "" {
		return 0, ErrInvalidTopic
	}
	if qos > maxQoS {
		return 0, ErrInvalidQoS
	}
	if handler == nil {
		return 0, fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if !c.IsConnected() {
		return 0, ErrNotConnected
	}

	// Track subscription for reconnection restoration
	c.subMu.Lock()
	c.subscriptions[topic] = subscription{
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
	c.subMu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	id := c.pending.track(opSubscribe, topic)
	go c.watchSubscribe(id, topic, token)

	return id, nil
}

// watchSubscribe waits for the broker's grant of an in-flight subscribe
// and resolves its pending entry. On failure the subscription is removed
// from the reconnect-restore table.
func (c *Client) watchSubscribe(id MessageID, topic string, token pahomqtt.Token) {
	var subErr error
	switch {
	case !token.WaitTimeout(defaultAckTimeout):
		subErr = fmt.Errorf("%w: %w after %v", ErrSubscribeFailed, ErrTimeout, defaultAckTimeout)
	case token.Error() != nil:
		subErr = fmt.Errorf("%w: %w", ErrSubscribeFailed, token.Error())
	}

	if subErr != nil {
		c.subMu.Lock()
		delete(c.subscriptions, topic)
		c.subMu.Unlock()
		c.reportError(subErr)
	}

	c.ackPending(id)
}

// Unsubscribe removes a subscription and stops receiving messages for a topic.
//
// Any messages in flight may still be delivered.
//
// Parameters:
//   - topic: The exact topic pattern that was subscribed to
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(defaultAckTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrUnsubscribeFailed, ErrTimeout, defaultAckTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription checks if a subscription exists for the given topic.
//
// Note: This checks only the exact topic string, not pattern matching.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, exists := c.subscriptions[topic]
	return exists
}
