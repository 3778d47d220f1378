// Air Bridge - Cloud HVAC Device Bridge
//
// This is the main entry point for the Air Bridge application.
// Air Bridge mirrors hierarchical device state from a remote HVAC cloud
// into local infrastructure:
//   - Periodic full-snapshot refresh with exponential backoff
//   - Atomic descriptor replacement (never partial merges)
//   - Redacted state publication over MQTT
//   - Numeric datapoint telemetry in InfluxDB
//   - SQLite snapshots for warm restarts
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/airbridge/internal/cloud"
	"github.com/nerrad567/airbridge/internal/device"
	"github.com/nerrad567/airbridge/internal/infrastructure/config"
	"github.com/nerrad567/airbridge/internal/infrastructure/database"
	"github.com/nerrad567/airbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/airbridge/internal/infrastructure/logging"
	"github.com/nerrad567/airbridge/internal/infrastructure/mqtt"
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

	if err := run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Air Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open snapshot database
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

	snapshots, err := device.NewSQLiteSnapshotRepository(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("initialising snapshot store: %w", err)
	}

	// Session registry
	sessions := device.NewSessions()
	sessions.SetLogger(log)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Cloud client and syncer
	cloudClient := cloud.NewClient(cfg.Cloud, cfg.Sync.Retry)
	cloudClient.SetLogger(log)

	opts := []cloud.SyncerOption{cloud.WithSnapshots(snapshots)}
	if mqttClient != nil {
		opts = append(opts, cloud.WithPublisher(
			&mqttSyncAdapter{client: mqttClient},
			mqtt.Topics{},
			byte(cfg.MQTT.QoS),
		))
	}
	if influxClient != nil {
		opts = append(opts, cloud.WithMetrics(influxClient))
	}

	syncer := cloud.NewSyncer(cloudClient, sessions, cfg.GetSyncInterval(), opts...)
	syncer.SetLogger(log)

	// Serve local reads from the last persisted snapshots until the
	// first cloud fetch lands
	if err := syncer.WarmFromSnapshots(ctx); err != nil {
		log.Warn("snapshot warm-up failed, starting cold", "error", err)
	}

	log.Info("initialisation complete, starting refresh loop",
		"interval", cfg.GetSyncInterval().String(),
	)

	// Blocks until the shutdown signal cancels ctx
	if err := syncer.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("refresh loop: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT (if enabled)
	// 3. Database

	log.Info("Air Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AIRBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AIRBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttSyncAdapter adapts the infrastructure MQTT client to the syncer's
// StatePublisher interface. The client's Subscribe takes the named
// mqtt.MessageHandler type, so the method sets don't match directly.
type mqttSyncAdapter struct {
	client *mqtt.Client
}

// PublishRetained implements cloud.StatePublisher.
func (a *mqttSyncAdapter) PublishRetained(topic string, payload []byte) error {
	return a.client.PublishRetained(topic, payload)
}

// Subscribe implements cloud.StatePublisher.
func (a *mqttSyncAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}
