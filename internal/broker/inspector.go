package broker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/openems/dispatch-core/internal/infrastructure/mqtt"
)

// ToolClient is the slice of the transport client the diagnostic tools
// need. Satisfied by *mqtt.Client.
type ToolClient interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) (mqtt.MessageID, error)
	Publish(topic string, payload []byte, qos byte, retained bool) (mqtt.MessageID, error)
	Close() error
}

// defaultIdleTimeout ends a diagnostic run when the broker has drained
// its retained backlog and gone quiet.
const defaultIdleTimeout = 3 * time.Second

// Inspector dumps the broker's retained state for a topic subtree. It
// subscribes to {base}/#, prints every retained message, and terminates
// once no message has arrived for the idle timeout.
type Inspector struct {
	client ToolClient
	topics Topics
	out    io.Writer
	idle   time.Duration
}

// NewInspector creates an inspector writing human-readable output to out.
// A non-positive idle timeout falls back to the default.
func NewInspector(client ToolClient, out io.Writer, idle time.Duration) *Inspector {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Inspector{client: client, out: out, idle: idle}
}

// Run inspects the subtree under base and returns the number of retained
// messages seen. The connection is closed on every exit path.
func (i *Inspector) Run(ctx context.Context, base string) (int, error) {
	defer i.client.Close()

	var (
		mu    sync.Mutex
		count int
	)
	idle := newIdleTimer(i.idle)

	filter := i.topics.Subtree(base)
	fmt.Fprintf(i.out, "inspecting %s (idle timeout %v)\n", filter, i.idle)

	_, err := i.client.Subscribe(filter, 0, func(topic string, payload []byte, retained bool) error {
		idle.reset()
		if !retained {
			return nil
		}
		mu.Lock()
		count++
		mu.Unlock()
		fmt.Fprintf(i.out, "%s  %s\n", topic, payload)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("subscribing to %s: %w", filter, err)
	}

	if err := idle.wait(ctx); err != nil {
		return count, err
	}

	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(i.out, "%d retained message(s)\n", count)
	return count, nil
}

// idleTimer fires once no reset has happened for the configured window.
type idleTimer struct {
	timer *time.Timer
	d     time.Duration
}

func newIdleTimer(d time.Duration) *idleTimer {
	return &idleTimer{timer: time.NewTimer(d), d: d}
}

// reset pushes the expiry out by the full window.
func (t *idleTimer) reset() {
	t.timer.Reset(t.d)
}

// wait blocks until the timer expires or the context is cancelled.
func (t *idleTimer) wait(ctx context.Context) error {
	defer t.timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.timer.C:
		return nil
	}
}
