// Package config holds the daemon configuration. Defaults mirror the device
// firmware timings; a YAML file can override them, and command-line flags
// override both.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5s" parse naturally.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full daemon configuration.
type Config struct {
	Tick         Duration `yaml:"tick"`
	ScanPeriod   Duration `yaml:"scan_period"`
	HealthPeriod Duration `yaml:"health_period"`
	TouchPeriod  Duration `yaml:"touch_period"`
	Heartbeat    Duration `yaml:"heartbeat"`
	LockWait     Duration `yaml:"lock_wait"`

	Broker   string `yaml:"broker"`
	HTTPAddr string `yaml:"http_addr"`

	QueueCapacity int    `yaml:"queue_capacity"`
	DropPolicy    string `yaml:"drop_policy"` // "newest" or "oldest"

	SDPath    string `yaml:"sd_path"`
	TouchPin  int    `yaml:"touch_pin"`
	MemBudget uint64 `yaml:"mem_budget_bytes"`
	ScanSeed  int64  `yaml:"scan_seed"`

	// Rule-table thresholds. File-only; the flag surface stays the
	// operational knobs.
	LowMemoryThreshold uint64   `yaml:"low_memory_threshold"`
	HighWiFiThreshold  uint32   `yaml:"high_wifi_threshold"`
	ExcitedSignalDBm   int32    `yaml:"excited_signal_dbm"`
	TrackingBLECount   uint32   `yaml:"tracking_ble_count"`
	StrongBLEThreshold int32    `yaml:"strong_ble_threshold"`
	SniffDwell         Duration `yaml:"sniff_dwell"`
	SleepDwell         Duration `yaml:"sleep_dwell"`
}

// Default returns the firmware-derived defaults.
func Default() Config {
	return Config{
		Tick:          Duration(200 * time.Millisecond),
		ScanPeriod:    Duration(5 * time.Second),
		HealthPeriod:  Duration(time.Second),
		TouchPeriod:   Duration(250 * time.Millisecond),
		Heartbeat:     Duration(15 * time.Minute),
		LockWait:      Duration(50 * time.Millisecond),
		Broker:        "tcp://192.168.1.200:1883",
		HTTPAddr:      ":8080",
		QueueCapacity: 10,
		DropPolicy:    "newest",
		SDPath:        "",
		TouchPin:      27,
		MemBudget:     4 << 20,
		ScanSeed:      0,

		LowMemoryThreshold: 10240,
		HighWiFiThreshold:  10,
		ExcitedSignalDBm:   -40,
		TrackingBLECount:   5,
		StrongBLEThreshold: -50,
		SniffDwell:         Duration(5 * time.Second),
		SleepDwell:         Duration(60 * time.Second),
	}
}

// Load reads a YAML file over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Tick.Std() <= 0 {
		return fmt.Errorf("tick must be positive, got %v", c.Tick.Std())
	}
	if c.ScanPeriod.Std() <= 0 || c.HealthPeriod.Std() <= 0 || c.TouchPeriod.Std() <= 0 {
		return fmt.Errorf("producer periods must be positive")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.DropPolicy != "newest" && c.DropPolicy != "oldest" {
		return fmt.Errorf("drop_policy must be %q or %q, got %q", "newest", "oldest", c.DropPolicy)
	}
	return nil
}
