// Dispatch Core - emergency dispatch state service
//
// dispatchd owns the dispatch system of record (SQLite) and mirrors every
// state change onto an MQTT broker as retained messages, so dispatcher
// and vehicle clients receive current state on subscribe and live deltas
// thereafter. The broker is optional: when it is unreachable at startup
// the service runs with the mirror disabled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/openems/dispatch-core/migrations"

	"github.com/openems/dispatch-core/internal/broker"
	"github.com/openems/dispatch-core/internal/entity"
	"github.com/openems/dispatch-core/internal/infrastructure/config"
	"github.com/openems/dispatch-core/internal/infrastructure/database"
	"github.com/openems/dispatch-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Dispatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	ambulances := entity.NewSQLiteAmbulanceRepository(db.DB)
	hospitals := entity.NewSQLiteHospitalRepository(db.DB)
	equipment := entity.NewSQLiteEquipmentRepository(db.DB)

	// Broker lifecycle manager. Construction validates configuration;
	// the connection itself is attempted on first façade use below.
	manager, err := broker.NewManager(cfg.MQTT, log)
	if err != nil {
		return fmt.Errorf("configuring broker: %w", err)
	}
	defer func() {
		log.Info("disconnecting from broker")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing broker connection", "error", closeErr)
		}
	}()

	// Wire the change-event bridge into every repository's commit path.
	bridge := broker.NewBridge(manager, equipment, log)
	ambulances.SetNotifier(bridge)
	hospitals.SetNotifier(bridge)
	equipment.SetNotifier(bridge)

	// Seed the broker with the full current state. Pays the connect wait;
	// a broker that is down degrades the mirror for the process lifetime.
	if err := broker.Seed(ctx, manager.Facade(), &seedSource{
		ambulances: ambulances,
		hospitals:  hospitals,
		equipment:  equipment,
	}, log); err != nil {
		return fmt.Errorf("seeding broker state: %w", err)
	}

	if manager.Active() {
		log.Info("broker state mirror active")
	} else {
		log.Warn("running without broker state mirror")
	}

	// Verify connections are healthy
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// seedSource adapts the repositories to the seeder's interface.
type seedSource struct {
	ambulances *entity.SQLiteAmbulanceRepository
	hospitals  *entity.SQLiteHospitalRepository
	equipment  *entity.SQLiteEquipmentRepository
}

func (s *seedSource) ListAmbulances(ctx context.Context) ([]entity.Ambulance, error) {
	return s.ambulances.List(ctx)
}

func (s *seedSource) ListHospitals(ctx context.Context) ([]entity.Hospital, error) {
	return s.hospitals.List(ctx)
}

func (s *seedSource) ListHospitalEquipment(ctx context.Context, hospitalID int64) ([]entity.HospitalEquipment, error) {
	return s.equipment.ListHospitalEquipment(ctx, hospitalID)
}

// getConfigPath returns the configuration file path.
// Uses DISPATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DISPATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
