package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
device:
  hostname: "desk"
mqtt:
  broker:
    host: "broker.lan"
    port: 8883
    tls: true
  qos: 1
session:
  retry_interval: 2s
  action_timeout: 15s
buttons:
  - name: "Lock Screen"
    exec: "loginctl lock-session"
switches:
  - name: "Caffeine"
    exec: "caffeine {state}"
  - name: "Do Not Disturb"
    dbus:
      service: "org.example.Dnd"
      path: "/org/example/Dnd"
      interface: "org.example.Dnd"
      method: "SetEnabled"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Hostname != "desk" {
		t.Errorf("Device.Hostname = %q, want %q", cfg.Device.Hostname, "desk")
	}
	if cfg.Device.Name != "desk" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "desk")
	}
	if cfg.MQTT.Broker.ClientID != "hostlink-desk" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "hostlink-desk")
	}
	if cfg.Session.RetryInterval != 2*time.Second {
		t.Errorf("Session.RetryInterval = %v, want %v", cfg.Session.RetryInterval, 2*time.Second)
	}
	if cfg.Session.ActionTimeout != 15*time.Second {
		t.Errorf("Session.ActionTimeout = %v, want %v", cfg.Session.ActionTimeout, 15*time.Second)
	}
	// Unset values keep their defaults.
	if cfg.Session.DrainTimeout != 10*time.Second {
		t.Errorf("Session.DrainTimeout = %v, want %v", cfg.Session.DrainTimeout, 10*time.Second)
	}
	if cfg.Discovery.Prefix != "homeassistant" {
		t.Errorf("Discovery.Prefix = %q, want %q", cfg.Discovery.Prefix, "homeassistant")
	}
	if len(cfg.Switches) != 2 || cfg.Switches[1].DBus == nil {
		t.Fatalf("Switches = %+v, want two with the second over dbus", cfg.Switches)
	}
	if cfg.Switches[1].DBus.Method != "SetEnabled" {
		t.Errorf("Switches[1].DBus.Method = %q, want %q", cfg.Switches[1].DBus.Method, "SetEnabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
device:
  hostname: "desk"
switches:
  - name: "Broken"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error for switch without action, got nil")
	}
	if !strings.Contains(err.Error(), "exactly one of exec or dbus") {
		t.Errorf("Load() error = %v, want switch action error", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
device:
  hostname: "desk"
mqtt:
  broker:
    host: "from-file"
`)

	t.Setenv("HOSTLINK_MQTT_HOST", "from-env")
	t.Setenv("HOSTLINK_MQTT_PORT", "1884")
	t.Setenv("HOSTLINK_MQTT_PASSWORD", "secret")
	t.Setenv("HOSTLINK_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "from-env" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "from-env")
	}
	if cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker.Port = %d, want %d", cfg.MQTT.Broker.Port, 1884)
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password not overridden")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Device.Hostname = "desk"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults with hostname",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing hostname",
			mutate:  func(c *Config) { c.Device.Hostname = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero retry interval",
			mutate:  func(c *Config) { c.Session.RetryInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero pending actions",
			mutate:  func(c *Config) { c.Session.MaxPendingActions = 0 },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name: "button without exec",
			mutate: func(c *Config) {
				c.Buttons = []ButtonConfig{{Name: "Lock"}}
			},
			wantErr: true,
		},
		{
			name: "switch with both exec and dbus",
			mutate: func(c *Config) {
				c.Switches = []SwitchConfig{{
					Name: "Both",
					Exec: "true",
					DBus: &DBusCallConfig{Service: "a", Path: "/a", Interface: "a", Method: "A"},
				}}
			},
			wantErr: true,
		},
		{
			name: "switch with incomplete dbus",
			mutate: func(c *Config) {
				c.Switches = []SwitchConfig{{Name: "Half", DBus: &DBusCallConfig{Service: "a"}}}
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "hostlink"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Device.Hostname = ""
	cfg.MQTT.QoS = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	for _, want := range []string{"device.hostname", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %q", err, want)
		}
	}
}
