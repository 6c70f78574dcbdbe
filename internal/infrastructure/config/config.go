package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for VeSync Connect.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Connector   ConnectorConfig   `yaml:"connector"`
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	VeSync      VeSyncConfig      `yaml:"vesync"`
	SmartThings SmartThingsConfig `yaml:"smartthings"`
	Profiles    DeviceProfiles    `yaml:"device_profiles"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ConnectorConfig contains the SmartThings SmartApp registration details.
type ConnectorConfig struct {
	AppID        string `yaml:"app_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// PublicURL is the externally reachable base URL of this connector.
	// It is used to build absolute links (e.g. wizard banner images) and is
	// plain configuration: set it once here, never mutated at runtime.
	PublicURL string `yaml:"public_url"`
}

// ServerConfig contains the webhook HTTP server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// RedisConfig contains the connection settings for the credential store.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// VeSyncConfig contains vendor cloud API settings.
type VeSyncConfig struct {
	APIEndpoint string `yaml:"api_endpoint"`

	// Timeout is the HTTP client timeout in seconds for vendor calls.
	Timeout int `yaml:"timeout"`
}

// SmartThingsConfig contains hub cloud API settings.
type SmartThingsConfig struct {
	APIEndpoint string `yaml:"api_endpoint"`
}

// DeviceProfiles maps vendor device capabilities to SmartThings device
// profile IDs. Profiles are created in the Developer Workspace and referenced
// here by ID.
type DeviceProfiles struct {
	White       string `yaml:"white"`
	Color       string `yaml:"color"`
	ColorTemp   string `yaml:"color_temp"`
	AirPurifier string `yaml:"air_purifier"`
}

// MQTTConfig contains settings for the optional local event mirror.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains settings for the optional telemetry recorder.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VESYNC_SECTION_KEY
// For example: VESYNC_REDIS_HOST, VESYNC_CLIENT_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Connector: ConnectorConfig{
			PublicURL: "http://localhost:3000",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		VeSync: VeSyncConfig{
			APIEndpoint: "https://smartapi.vesync.com",
			Timeout:     30,
		},
		SmartThings: SmartThingsConfig{
			APIEndpoint: "https://api.smartthings.com/v1",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vesync-connect",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VESYNC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Connector (secrets should come from the environment, not the file)
	if v := os.Getenv("VESYNC_APP_ID"); v != "" {
		cfg.Connector.AppID = v
	}
	if v := os.Getenv("VESYNC_CLIENT_ID"); v != "" {
		cfg.Connector.ClientID = v
	}
	if v := os.Getenv("VESYNC_CLIENT_SECRET"); v != "" {
		cfg.Connector.ClientSecret = v
	}
	if v := os.Getenv("VESYNC_PUBLIC_URL"); v != "" {
		cfg.Connector.PublicURL = v
	}

	// Server
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Redis
	if v := os.Getenv("VESYNC_REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("VESYNC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// MQTT
	if v := os.Getenv("VESYNC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VESYNC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Connector validation - the SmartApp cannot register without these
	if c.Connector.AppID == "" {
		errs = append(errs, "connector.app_id is required")
	}
	if c.Connector.ClientID == "" {
		errs = append(errs, "connector.client_id is required")
	}
	if c.Connector.ClientSecret == "" {
		errs = append(errs, "connector.client_secret is required (set VESYNC_CLIENT_SECRET environment variable)")
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// Redis validation
	if c.Redis.Host == "" {
		errs = append(errs, "redis.host is required")
	}

	// VeSync validation
	if c.VeSync.APIEndpoint == "" {
		errs = append(errs, "vesync.api_endpoint is required")
	}

	// SmartThings validation
	if c.SmartThings.APIEndpoint == "" {
		errs = append(errs, "smartthings.api_endpoint is required")
	}

	// Profile validation - device creation needs a profile ID for every branch
	if c.Profiles.White == "" {
		errs = append(errs, "device_profiles.white is required")
	}
	if c.Profiles.Color == "" {
		errs = append(errs, "device_profiles.color is required")
	}
	if c.Profiles.ColorTemp == "" {
		errs = append(errs, "device_profiles.color_temp is required")
	}
	if c.Profiles.AirPurifier == "" {
		errs = append(errs, "device_profiles.air_purifier is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}
