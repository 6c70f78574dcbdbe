// VeSync Connect - SmartThings cloud connector for VeSync devices
//
// This is the main entry point for the connector. It receives SmartApp
// lifecycle webhooks from SmartThings, mirrors the user's VeSync device
// inventory into the hub, and routes hub commands back to the VeSync
// cloud.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nerrad567/vesync-connect/internal/api"
	"github.com/nerrad567/vesync-connect/internal/command"
	"github.com/nerrad567/vesync-connect/internal/credstore"
	"github.com/nerrad567/vesync-connect/internal/events"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/influxdb"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/mqtt"
	"github.com/nerrad567/vesync-connect/internal/infrastructure/redisdb"
	"github.com/nerrad567/vesync-connect/internal/lifecycle"
	"github.com/nerrad567/vesync-connect/internal/reconcile"
	"github.com/nerrad567/vesync-connect/internal/smartthings"
	"github.com/nerrad567/vesync-connect/internal/vesync"
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
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Secrets may come from a local .env file in development; its absence
	// is normal in production.
	_ = godotenv.Load()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting VeSync Connect",
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

	// Connect to Redis (credential store)
	redisClient, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection")
		if closeErr := redisClient.Close(); closeErr != nil {
			log.Error("error closing Redis", "error", closeErr)
		}
	}()
	log.Info("Redis connected", "host", cfg.Redis.Host, "port", cfg.Redis.Port)

	store := credstore.New(redisClient.Hashes())

	// API clients
	vendorClient := vesync.NewClient(cfg.VeSync, log)
	hubClient := smartthings.NewClient(cfg.SmartThings.APIEndpoint, log)

	// Event dispatcher with its optional sinks
	dispatcher := events.NewDispatcher(hubClient, log)
	health := map[string]api.HealthChecker{
		"redis": redisClient,
	}

	// Connect to MQTT broker (optional event mirror)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		dispatcher.SetMirror(mqttClient, byte(cfg.MQTT.QoS))
		health["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional telemetry recorder)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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

		dispatcher.SetRecorder(influxClient)
		health["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Domain wiring
	reconciler := reconcile.NewReconciler(hubClient, vendorClient, dispatcher, cfg.Profiles, log)
	orchestrator := lifecycle.NewOrchestrator(store, hubClient, vendorClient, reconciler, log)
	commandRouter := command.NewRouter(store, vendorClient, dispatcher, log)

	// Webhook server
	server, err := api.New(api.Deps{
		Config:       cfg,
		Logger:       log,
		Store:        store,
		Vendor:       vendorClient,
		Orchestrator: orchestrator,
		Commands:     commandRouter,
		Health:       health,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating webhook server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting webhook server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing webhook server", "error", closeErr)
		}
	}()
	log.Info("webhook server started",
		"address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"public_url", cfg.Connector.PublicURL,
	)

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// getConfigPath returns the configuration file path from the environment
// or the default.
func getConfigPath() string {
	if path := os.Getenv("VESYNC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
