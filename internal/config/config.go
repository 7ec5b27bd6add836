// Package config loads and validates the dispatch configuration via
// viper, from a YAML config file and DISPATCH_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete dispatch configuration.
type Config struct {
	Executor ExecutorConfig `mapstructure:"executor"`
	Scaling  ScalingConfig  `mapstructure:"scaling"`
	Spool    SpoolConfig    `mapstructure:"spool"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
}

// ExecutorConfig controls the coordinator core.
type ExecutorConfig struct {
	// Parallelism is the slot ceiling: how many attempts may be
	// dispatched and unconfirmed at once.
	Parallelism int `mapstructure:"parallelism"`
	// SubmissionFaultPolicy is "requeue" (retry transient faults) or
	// "fail" (record any submission fault as a failed attempt).
	SubmissionFaultPolicy string `mapstructure:"submission_fault_policy"`
	// HeartbeatIntervalMs is the tick interval for the run command.
	HeartbeatIntervalMs int `mapstructure:"heartbeat_interval_ms"`
}

// HeartbeatInterval returns the tick interval as a duration.
func (c *ExecutorConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

// ScalingConfig controls slot ceiling recommendations.
type ScalingConfig struct {
	// Enabled turns the scaling monitor on (default: false).
	Enabled bool `mapstructure:"enabled"`
	// MinSlots is the floor for the slot ceiling.
	MinSlots int `mapstructure:"min_slots"`
	// MaxSlots is the cap for the slot ceiling.
	MaxSlots int `mapstructure:"max_slots"`
	// CooldownSeconds is the minimum time between scaling decisions.
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
}

// Cooldown returns the scaling cooldown as a duration.
func (c *ScalingConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// SpoolConfig controls manifest ingestion.
type SpoolConfig struct {
	// Dir is the watched manifest directory. Empty disables the spool.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Dir is where log files are written. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// PathsConfig controls where dispatch stores data.
type PathsConfig struct {
	// StateDir is where the coordinator snapshots its queue and
	// dispatched set for restart recovery. Empty disables snapshots.
	StateDir string `mapstructure:"state_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Executor: ExecutorConfig{
			Parallelism:           32,
			SubmissionFaultPolicy: "requeue",
			HeartbeatIntervalMs:   1000,
		},
		Scaling: ScalingConfig{
			Enabled:         false,
			MinSlots:        1,
			MaxSlots:        64,
			CooldownSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers the default values with viper so they apply
// even without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("executor.parallelism", defaults.Executor.Parallelism)
	viper.SetDefault("executor.submission_fault_policy", defaults.Executor.SubmissionFaultPolicy)
	viper.SetDefault("executor.heartbeat_interval_ms", defaults.Executor.HeartbeatIntervalMs)

	viper.SetDefault("scaling.enabled", defaults.Scaling.Enabled)
	viper.SetDefault("scaling.min_slots", defaults.Scaling.MinSlots)
	viper.SetDefault("scaling.max_slots", defaults.Scaling.MaxSlots)
	viper.SetDefault("scaling.cooldown_seconds", defaults.Scaling.CooldownSeconds)

	viper.SetDefault("spool.dir", defaults.Spool.Dir)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)
}

// Load reads the configuration from viper into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dispatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dispatch"
	}
	return filepath.Join(home, ".config", "dispatch")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
