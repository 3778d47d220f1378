package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Air Bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Cloud    CloudConfig    `yaml:"cloud"`
	Sync     SyncConfig     `yaml:"sync"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CloudConfig contains the remote device-cloud connection settings.
//
// The bridge only needs a base URL and a bearer token. How the token is
// obtained (OAuth flows, refresh) is outside the bridge; rotate it via
// the AIRBRIDGE_CLOUD_TOKEN environment variable.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	// RequestTimeout bounds a single HTTP attempt (seconds).
	RequestTimeout int `yaml:"request_timeout"`
}

// SyncConfig contains refresh loop and retry settings.
type SyncConfig struct {
	// Interval between periodic full refreshes (seconds).
	Interval int `yaml:"interval"`
	// Retry settings applied to each remote fetch.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig contains exponential backoff settings for remote fetches.
type RetryConfig struct {
	// MaxRetries after the first attempt (so MaxRetries+1 attempts total).
	MaxRetries int `yaml:"max_retries"`
	// InitialDelay before the first retry (milliseconds).
	InitialDelay int `yaml:"initial_delay"`
	// MaxDelay caps the doubling backoff (milliseconds).
	MaxDelay int `yaml:"max_delay"`
}

// MQTTConfig contains MQTT broker connection settings.
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite snapshot store settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
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
// Environment variables follow the pattern: AIRBRIDGE_SECTION_KEY
// For example: AIRBRIDGE_CLOUD_TOKEN, AIRBRIDGE_DATABASE_PATH
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
		Cloud: CloudConfig{
			RequestTimeout: 15,
		},
		Sync: SyncConfig{
			Interval: 900,
			Retry: RetryConfig{
				MaxRetries:   3,
				InitialDelay: 1000,
				MaxDelay:     10000,
			},
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "airbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/airbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AIRBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud - token is a secret, prefer the environment over the file
	if v := os.Getenv("AIRBRIDGE_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := os.Getenv("AIRBRIDGE_CLOUD_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}

	// Database
	if v := os.Getenv("AIRBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("AIRBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("AIRBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("AIRBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("AIRBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Cloud validation
	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}
	if c.Cloud.Token == "" {
		errs = append(errs, "cloud.token is required (set AIRBRIDGE_CLOUD_TOKEN environment variable)")
	}
	if c.Cloud.RequestTimeout <= 0 {
		errs = append(errs, "cloud.request_timeout must be positive")
	}

	// Sync validation
	if c.Sync.Interval <= 0 {
		errs = append(errs, "sync.interval must be positive")
	}
	if c.Sync.Retry.MaxRetries < 0 {
		errs = append(errs, "sync.retry.max_retries must not be negative")
	}
	if c.Sync.Retry.InitialDelay <= 0 || c.Sync.Retry.MaxDelay <= 0 {
		errs = append(errs, "sync.retry delays must be positive")
	}

	// MQTT validation
	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the cloud request timeout as a Duration.
func (c *CloudConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetSyncInterval returns the refresh interval as a Duration.
func (c *Config) GetSyncInterval() time.Duration {
	return time.Duration(c.Sync.Interval) * time.Second
}

// GetRetryInitialDelay returns the initial backoff delay as a Duration.
func (c *RetryConfig) GetRetryInitialDelay() time.Duration {
	return time.Duration(c.InitialDelay) * time.Millisecond
}

// GetRetryMaxDelay returns the backoff cap as a Duration.
func (c *RetryConfig) GetRetryMaxDelay() time.Duration {
	return time.Duration(c.MaxDelay) * time.Millisecond
}
