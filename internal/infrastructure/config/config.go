package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for fodhald.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Seh       SehConfig       `yaml:"seh"`
	History   HistoryConfig   `yaml:"history"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig contains the sysfs control paths and device identification settings.
type DeviceConfig struct {
	// CmdlinePath is the file the bootloader identifier is parsed from.
	// Default: /proc/cmdline (androidboot.bootloader= token).
	CmdlinePath string `yaml:"cmdline_path"`

	// Bootloader overrides the detected bootloader identifier when non-empty.
	// Intended for bench setups without the real kernel command line.
	Bootloader string `yaml:"bootloader"`

	// TSPCmdPath is the touch-panel driver command file.
	TSPCmdPath string `yaml:"tsp_cmd_path"`

	// BrightnessPath is the panel backlight brightness file.
	BrightnessPath string `yaml:"brightness_path"`

	// BoostedBrightness is the brightness forced while a finger is pressed.
	// Device-calibrated for optical sensing.
	BoostedBrightness string `yaml:"boosted_brightness"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
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
	MaxAttempts  int `yaml:"max_attempts"`
}

// SehConfig contains the vendor biometrics daemon connection settings.
type SehConfig struct {
	// Connection is the daemon socket URL.
	// Supported formats: "unix:///dev/socket/sehfpd", "tcp://localhost:9843".
	// Empty disables signal forwarding entirely.
	Connection string `yaml:"connection"`

	// ConnectTimeout is the maximum time in seconds to wait for the initial connection.
	ConnectTimeout int `yaml:"connect_timeout"`

	// WriteTimeout is the per-request write deadline in seconds.
	WriteTimeout int `yaml:"write_timeout"`
}

// HistoryConfig contains the local event history settings.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	WALMode       bool   `yaml:"wal_mode"`
	BusyTimeout   int    `yaml:"busy_timeout"`
	RetentionDays int    `yaml:"retention_days"`
}

// InfluxDBConfig contains InfluxDB connection settings for telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the diagnostics HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from the YAML file at path, applies
// environment variable overrides and validates the result.
//
// Environment variables follow the pattern FODHALD_SECTION_KEY,
// for example: FODHALD_MQTT_HOST, FODHALD_HISTORY_PATH.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
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

// defaultConfig returns a Config with sensible defaults for the sm7125 platform.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			CmdlinePath:       "/proc/cmdline",
			TSPCmdPath:        "/sys/class/sec/tsp/cmd",
			BrightnessPath:    "/sys/class/backlight/panel0-backlight/brightness",
			BoostedBrightness: "331",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "fodhald",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Seh: SehConfig{
			Connection:     "unix:///dev/socket/sehfpd",
			ConnectTimeout: 10,
			WriteTimeout:   5,
		},
		History: HistoryConfig{
			Enabled:       true,
			Path:          "./data/fodhald.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 7,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8790,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FODHALD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("FODHALD_DEVICE_BOOTLOADER"); v != "" {
		cfg.Device.Bootloader = v
	}

	// MQTT
	if v := os.Getenv("FODHALD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FODHALD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FODHALD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Seh daemon
	if v := os.Getenv("FODHALD_SEH_CONNECTION"); v != "" {
		cfg.Seh.Connection = v
	}

	// History
	if v := os.Getenv("FODHALD_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// InfluxDB
	if v := os.Getenv("FODHALD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("FODHALD_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for invalid values.
//
// Returns:
//   - error: Description of the first invalid field found, or nil
func (c *Config) Validate() error {
	if c.Device.TSPCmdPath == "" {
		return fmt.Errorf("device.tsp_cmd_path is required")
	}
	if c.Device.BrightnessPath == "" {
		return fmt.Errorf("device.brightness_path is required")
	}
	if c.Device.BoostedBrightness != "" {
		if _, err := strconv.Atoi(c.Device.BoostedBrightness); err != nil {
			return fmt.Errorf("device.boosted_brightness must be an integer: %w", err)
		}
	}

	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		return fmt.Errorf("mqtt.broker.port must be between 1 and 65535, got %d", c.MQTT.Broker.Port)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1, or 2, got %d", c.MQTT.QoS)
	}

	if c.Seh.Connection != "" {
		u, err := url.Parse(c.Seh.Connection)
		if err != nil {
			return fmt.Errorf("seh.connection is not a valid URL: %w", err)
		}
		if u.Scheme != "unix" && u.Scheme != "tcp" {
			return fmt.Errorf("seh.connection scheme must be unix or tcp, got %q", u.Scheme)
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			return fmt.Errorf("influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			return fmt.Errorf("influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}

	return nil
}
