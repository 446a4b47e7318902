// fodhald - in-display fingerprint daemon for the sm7125 platform
//
// fodhald translates fingerprint lifecycle commands into touch-panel
// driver writes, a brightness override for optical sensing, and signals
// to the vendor biometrics daemon. Commands arrive over MQTT; events
// fan out to a local SQLite history, optional InfluxDB telemetry, and a
// loopback diagnostics API with a WebSocket event stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maldini03/device-sm7125-common/internal/api"
	"github.com/maldini03/device-sm7125-common/internal/bridge"
	"github.com/maldini03/device-sm7125-common/internal/fod"
	"github.com/maldini03/device-sm7125-common/internal/history"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/config"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/database"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/influxdb"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/logging"
	"github.com/maldini03/device-sm7125-common/internal/infrastructure/mqtt"
	"github.com/maldini03/device-sm7125-common/internal/seh"
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

// pruneInterval is how often the history retention pass runs.
const pruneInterval = time.Hour

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
	log.Info("starting fodhald",
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

	// Open the local event history store (optional)
	var db *database.DB
	var eventHistory *history.SQLiteRepository
	if cfg.History.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()

		eventHistory = history.NewSQLiteRepository(db.DB)
		if initErr := eventHistory.Init(ctx); initErr != nil {
			return fmt.Errorf("initialising event history: %w", initErr)
		}
		log.Info("event history ready", "path", cfg.History.Path)

		if cfg.History.RetentionDays > 0 {
			retention := time.Duration(cfg.History.RetentionDays) * 24 * time.Hour
			go pruneLoop(ctx, eventHistory, retention, log)
		}
	} else {
		log.Info("event history disabled")
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
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
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to the vendor biometrics daemon (optional).
	// A dead daemon degrades signal forwarding, never the whole service.
	var sehClient *seh.Client
	if cfg.Seh.Connection != "" {
		sehClient, err = seh.Connect(ctx, seh.Config{
			Connection:     cfg.Seh.Connection,
			ConnectTimeout: time.Duration(cfg.Seh.ConnectTimeout) * time.Second,
			WriteTimeout:   time.Duration(cfg.Seh.WriteTimeout) * time.Second,
		})
		if err != nil {
			log.Warn("vendor daemon unreachable, signal forwarding disabled",
				"connection", cfg.Seh.Connection,
				"error", err,
			)
			sehClient = nil
		} else {
			defer func() {
				log.Info("closing vendor daemon connection")
				if closeErr := sehClient.Close(); closeErr != nil {
					log.Error("error closing vendor daemon connection", "error", closeErr)
				}
			}()
			sehClient.SetLogger(log)
			log.Info("vendor daemon connected", "connection", cfg.Seh.Connection)
		}
	} else {
		log.Info("signal forwarding disabled")
	}

	// Resolve the bootloader identifier: config override wins, otherwise
	// parse the kernel command line.
	bootloader := cfg.Device.Bootloader
	if bootloader == "" {
		bootloader, err = fod.ReadBootloader(cfg.Device.CmdlinePath)
		if err != nil {
			log.Warn("reading bootloader identifier failed, device will run unmatched",
				"path", cfg.Device.CmdlinePath,
				"error", err,
			)
		}
	}

	// Create the fingerprint controller. Construction programs the touch
	// panel and never fails.
	var channel fod.SignalChannel
	if sehClient != nil {
		channel = sehClient
	}
	controller := fod.NewController(fod.Options{
		Bootloader:        bootloader,
		TSPCmdPath:        cfg.Device.TSPCmdPath,
		BrightnessPath:    cfg.Device.BrightnessPath,
		BoostedBrightness: cfg.Device.BoostedBrightness,
		Channel:           channel,
		Logger:            log.With("component", "fod"),
	})
	log.Info("fingerprint controller ready",
		"model", string(controller.Profile().Model),
		"bootloader", bootloader,
	)

	// Start the diagnostics API server (optional)
	var apiServer *api.Server
	var hub bridge.Broadcaster
	if cfg.API.Enabled {
		var sehStatus api.ConnStatus
		if sehClient != nil {
			sehStatus = sehClient
		}
		var eventSource api.EventSource
		if eventHistory != nil {
			eventSource = eventHistory
		}

		apiServer, err = api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log.With("component", "api"),
			Controller: controller,
			History:    eventSource,
			Seh:        sehStatus,
			MQTT:       mqttClient,
			Version:    version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		hub = apiServer.Hub()
	} else {
		log.Info("diagnostics API disabled")
	}

	// Start the MQTT bridge
	var recorder bridge.Recorder
	if eventHistory != nil {
		recorder = eventHistory
	}
	var telemetry bridge.Telemetry
	if influxClient != nil {
		telemetry = influxClient
	}

	fodBridge, err := bridge.New(bridge.Options{
		MQTTClient:        mqttClient,
		Controller:        controller,
		QoS:               byte(cfg.MQTT.QoS),
		BoostedBrightness: cfg.Device.BoostedBrightness,
		Recorder:          recorder,
		Telemetry:         telemetry,
		Hub:               hub,
		Logger:            log.With("component", "bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := fodBridge.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		fodBridge.Stop()
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Bridge
	// 2. API server
	// 3. Vendor daemon connection (if connected)
	// 4. InfluxDB (if enabled)
	// 5. MQTT
	// 6. History database (if enabled)

	log.Info("fodhald stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FODHALD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FODHALD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// pruneLoop periodically deletes history entries past the retention window.
func pruneLoop(ctx context.Context, repo *history.SQLiteRepository, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.Prune(ctx, retention)
			if err != nil {
				log.Warn("history prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Debug("history pruned", "deleted", deleted)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: History database to check (may be nil if disabled)
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// The seh channel is best-effort by design and excluded from startup
	// health gating.

	return nil
}
