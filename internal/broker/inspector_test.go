package broker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openems/dispatch-core/internal/infrastructure/mqtt"
)

// fakeToolClient replays a retained backlog to the first subscriber and
// records tombstone publishes.
type fakeToolClient struct {
	mu      sync.Mutex
	backlog []fakeMessage
	filter  string
	cleared []string
	closed  bool
	subErr  error
}

type fakeMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func (c *fakeToolClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) (mqtt.MessageID, error) {
	if c.subErr != nil {
		return 0, c.subErr
	}
	c.mu.Lock()
	c.filter = topic
	backlog := append([]fakeMessage(nil), c.backlog...)
	c.mu.Unlock()

	go func() {
		for _, msg := range backlog {
			handler(msg.topic, msg.payload, msg.retained)
		}
	}()
	return 1, nil
}

func (c *fakeToolClient) Publish(topic string, payload []byte, _ byte, retained bool) (mqtt.MessageID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if retained && len(payload) == 0 {
		c.cleared = append(c.cleared, topic)
	}
	return 2, nil
}

func (c *fakeToolClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeToolClient) clearedTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cleared...)
}

func (c *fakeToolClient) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestInspector_CountsRetainedAndTerminatesOnIdle(t *testing.T) {
	client := &fakeToolClient{backlog: []fakeMessage{
		{topic: "hospital/4/data", payload: []byte(`{"id":4}`), retained: true},
		{topic: "hospital/4/metadata", payload: []byte(`{"equipment":[]}`), retained: true},
		{topic: "hospital/4/data", payload: []byte(`{"id":4}`), retained: false},
	}}
	var out bytes.Buffer

	count, err := NewInspector(client, &out, 50*time.Millisecond).Run(context.Background(), "hospital")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Run() count = %d, want 2 (live message must not count)", count)
	}
	if client.filter != "hospital/#" {
		t.Errorf("subscribed to %q, want hospital/#", client.filter)
	}
	if !client.wasClosed() {
		t.Error("client not closed after run")
	}
	if !strings.Contains(out.String(), "hospital/4/data") {
		t.Errorf("output missing topic dump:\n%s", out.String())
	}
}

func TestInspector_ContextCancellation(t *testing.T) {
	client := &fakeToolClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInspector(client, &bytes.Buffer{}, time.Minute).Run(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if !client.wasClosed() {
		t.Error("client not closed after cancelled run")
	}
}

func TestInspector_SubscribeFailure(t *testing.T) {
	client := &fakeToolClient{subErr: mqtt.ErrNotConnected}

	_, err := NewInspector(client, &bytes.Buffer{}, time.Minute).Run(context.Background(), "")
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Run() error = %v, want ErrNotConnected", err)
	}
	if !client.wasClosed() {
		t.Error("client not closed after failed subscribe")
	}
}
