// mqttclean wipes the broker's retained dispatch state.
//
// It subscribes to a topic subtree and publishes a retained tombstone for
// every retained message it receives, exiting once the broker has gone
// quiet for the idle timeout. Clearing is idempotent: an interrupted run
// can simply be repeated.
//
// Usage:
//
//	mqttclean [-config path] [-topic base] [-idle seconds]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openems/dispatch-core/internal/broker"
	"github.com/openems/dispatch-core/internal/infrastructure/config"
	"github.com/openems/dispatch-core/internal/infrastructure/mqtt"
)

func main() {
	configPath := flag.String("config", "", "configuration file (default: DISPATCH_CONFIG or configs/config.yaml)")
	topic := flag.String("topic", "", "topic subtree base to clear (empty for everything)")
	idle := flag.Int("idle", 3, "seconds of broker silence before exiting")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *topic, time.Duration(*idle)*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, topic string, idle time.Duration) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	// The cleaner owns the connection and closes it on every exit path.
	cleared, err := broker.NewCleaner(client, os.Stdout, idle).Run(ctx, topic)
	if err != nil {
		return err
	}
	fmt.Printf("done: %d retained topic(s) cleared\n", cleared)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("DISPATCH_CONFIG")
	}
	if path == "" {
		path = "configs/config.yaml"
	}
	return config.Load(path)
}
