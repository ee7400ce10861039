package broker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Cleaner wipes the broker's retained state for a topic subtree. It
// subscribes to {base}/#, publishes a tombstone for every retained
// message it receives, and terminates once the subtree has gone quiet
// for the idle timeout. Clearing an already-clear topic is harmless, so
// interrupted runs can simply be repeated.
type Cleaner struct {
	client ToolClient
	topics Topics
	out    io.Writer
	idle   time.Duration
}

// NewCleaner creates a cleaner writing progress to out. A non-positive
// idle timeout falls back to the default.
func NewCleaner(client ToolClient, out io.Writer, idle time.Duration) *Cleaner {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Cleaner{client: client, out: out, idle: idle}
}

// Run clears the subtree under base and returns the number of topics
// tombstoned. The connection is closed on every exit path.
func (c *Cleaner) Run(ctx context.Context, base string) (int, error) {
	defer c.client.Close()

	var (
		mu       sync.Mutex
		cleared  int
		firstErr error
	)
	idle := newIdleTimer(c.idle)

	filter := c.topics.Subtree(base)
	fmt.Fprintf(c.out, "clearing %s (idle timeout %v)\n", filter, c.idle)

	_, err := c.client.Subscribe(filter, 0, func(topic string, payload []byte, retained bool) error {
		idle.reset()
		// Tombstones we publish ourselves echo back with empty payloads;
		// clearing them again would loop forever.
		if !retained || len(payload) == 0 {
			return nil
		}

		if _, err := c.client.Publish(topic, nil, 0, true); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("clearing %s: %w", topic, err)
			}
			mu.Unlock()
			return err
		}

		mu.Lock()
		cleared++
		mu.Unlock()
		fmt.Fprintf(c.out, "cleared %s\n", topic)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("subscribing to %s: %w", filter, err)
	}

	if err := idle.wait(ctx); err != nil {
		return cleared, err
	}

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return cleared, firstErr
	}
	fmt.Fprintf(c.out, "%d topic(s) cleared\n", cleared)
	return cleared, nil
}
