package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for hostlink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	DBus      DBusConfig      `yaml:"dbus"`
	State     StateConfig     `yaml:"state"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Buttons   []ButtonConfig  `yaml:"buttons"`
	Switches  []SwitchConfig  `yaml:"switches"`
}

// DeviceConfig identifies this host to the hub.
type DeviceConfig struct {
	// Hostname is the identity prefix for every entity. Defaults to os.Hostname().
	Hostname string `yaml:"hostname"`

	// Name is the display name of the device block. Defaults to Hostname.
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// KeepAlive is the keepalive interval in seconds.
	KeepAlive int `yaml:"keep_alive"`
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

// DiscoveryConfig contains Home Assistant discovery settings.
type DiscoveryConfig struct {
	Prefix string `yaml:"prefix"`
}

// SessionConfig tunes the connection state machine and action dispatch.
type SessionConfig struct {
	// RetryInterval is the fixed wait between failed connection attempts.
	RetryInterval time.Duration `yaml:"retry_interval"`

	// DrainTimeout bounds how long shutdown waits for in-flight actions.
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// ActionTimeout bounds a single shell command or D-Bus call.
	ActionTimeout time.Duration `yaml:"action_timeout"`

	// MaxPendingActions caps concurrently executing actions.
	MaxPendingActions int `yaml:"max_pending_actions"`

	// InboundQueue is the buffer between the MQTT callback and the event loop.
	// Commands arriving while it is full are dropped.
	InboundQueue int `yaml:"inbound_queue"`

	// OutboundQueue is the buffer of publish requests waiting for the event loop.
	OutboundQueue int `yaml:"outbound_queue"`
}

// TelemetryConfig contains system performance sampling settings.
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	DiskPath string        `yaml:"disk_path"`
}

// DBusConfig enables the D-Bus backed features.
type DBusConfig struct {
	// Notifications shows desktop notifications received on the notify entity.
	Notifications bool `yaml:"notifications"`

	// PowerEvents watches logind for suspend and resume.
	PowerEvents bool `yaml:"power_events"`

	// SuspendGrace is how long the sleep inhibitor is held after a suspend is announced.
	SuspendGrace time.Duration `yaml:"suspend_grace"`
}

// StateConfig contains the SQLite switch state store settings.
type StateConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout"`
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

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ButtonConfig declares a button entity backed by a shell command.
type ButtonConfig struct {
	Name string `yaml:"name"`
	Exec string `yaml:"exec"`
	Icon string `yaml:"icon"`
}

// SwitchConfig declares a switch entity. Exactly one of Exec or DBus must be set.
type SwitchConfig struct {
	Name string          `yaml:"name"`
	Exec string          `yaml:"exec"`
	DBus *DBusCallConfig `yaml:"dbus"`
	Icon string          `yaml:"icon"`
}

// DBusCallConfig addresses a D-Bus method that takes a single boolean.
type DBusCallConfig struct {
	Service   string `yaml:"service"`
	Path      string `yaml:"path"`
	Interface string `yaml:"interface"`
	Method    string `yaml:"method"`

	// System selects the system bus instead of the session bus.
	System bool `yaml:"system"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//  4. Derived values (hostname, client id)
//
// Environment variables follow the pattern: HOSTLINK_SECTION_KEY
// For example: HOSTLINK_MQTT_HOST, HOSTLINK_LOG_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDerived(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:       1,
			KeepAlive: 30,
		},
		Discovery: DiscoveryConfig{
			Prefix: "homeassistant",
		},
		Session: SessionConfig{
			RetryInterval:     5 * time.Second,
			DrainTimeout:      10 * time.Second,
			ActionTimeout:     30 * time.Second,
			MaxPendingActions: 32,
			InboundQueue:      64,
			OutboundQueue:     64,
		},
		Telemetry: TelemetryConfig{
			Enabled:  true,
			Interval: 60 * time.Second,
			DiskPath: "/",
		},
		DBus: DBusConfig{
			Notifications: true,
			PowerEvents:   true,
			SuspendGrace:  time.Second,
		},
		State: StateConfig{
			Path:        "./data/hostlink.db",
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Listen: ":9105",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HOSTLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOSTLINK_HOSTNAME"); v != "" {
		cfg.Device.Hostname = v
	}

	// MQTT
	if v := os.Getenv("HOSTLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HOSTLINK_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("HOSTLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HOSTLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HOSTLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("HOSTLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyDerived fills values that depend on other settings.
func applyDerived(cfg *Config) {
	if cfg.Device.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			cfg.Device.Hostname = h
		}
	}
	if cfg.Device.Name == "" {
		cfg.Device.Name = cfg.Device.Hostname
	}
	if cfg.MQTT.Broker.ClientID == "" && cfg.Device.Hostname != "" {
		cfg.MQTT.Broker.ClientID = "hostlink-" + cfg.Device.Hostname
	}
}

// Validate checks the configuration for errors.
// A validation failure is a configuration error and is fatal at startup.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.Hostname == "" {
		errs = append(errs, "device.hostname is required")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.KeepAlive < 1 {
		errs = append(errs, "mqtt.keep_alive must be positive")
	}

	if c.Discovery.Prefix == "" {
		errs = append(errs, "discovery.prefix is required")
	}

	// Session validation
	if c.Session.RetryInterval <= 0 {
		errs = append(errs, "session.retry_interval must be positive")
	}
	if c.Session.DrainTimeout <= 0 {
		errs = append(errs, "session.drain_timeout must be positive")
	}
	if c.Session.ActionTimeout <= 0 {
		errs = append(errs, "session.action_timeout must be positive")
	}
	if c.Session.MaxPendingActions < 1 {
		errs = append(errs, "session.max_pending_actions must be at least 1")
	}
	if c.Session.InboundQueue < 1 {
		errs = append(errs, "session.inbound_queue must be at least 1")
	}
	if c.Session.OutboundQueue < 1 {
		errs = append(errs, "session.outbound_queue must be at least 1")
	}

	if c.Telemetry.Enabled && c.Telemetry.Interval <= 0 {
		errs = append(errs, "telemetry.interval must be positive")
	}

	if c.State.Enabled && c.State.Path == "" {
		errs = append(errs, "state.path is required when state is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when metrics are enabled")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	errs = append(errs, c.validateEntities()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateEntities checks the button and switch declarations.
func (c *Config) validateEntities() []string {
	var errs []string

	for i, b := range c.Buttons {
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, fmt.Sprintf("buttons[%d].name is required", i))
		}
		if strings.TrimSpace(b.Exec) == "" {
			errs = append(errs, fmt.Sprintf("buttons[%d].exec is required", i))
		}
	}

	for i, s := range c.Switches {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Sprintf("switches[%d].name is required", i))
		}
		hasExec := strings.TrimSpace(s.Exec) != ""
		hasDBus := s.DBus != nil
		if hasExec == hasDBus {
			errs = append(errs, fmt.Sprintf("switches[%d] must set exactly one of exec or dbus", i))
			continue
		}
		if hasDBus {
			d := s.DBus
			if d.Service == "" || d.Path == "" || d.Interface == "" || d.Method == "" {
				errs = append(errs, fmt.Sprintf("switches[%d].dbus requires service, path, interface and method", i))
			}
		}
	}

	return errs
}
