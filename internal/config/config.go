// Package config loads Foreman configuration through viper, layering a
// config file, FOREMAN_ environment variables, and built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Foreman configuration.
type Config struct {
	Agents  AgentsConfig  `mapstructure:"agents"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Plan    PlanConfig    `mapstructure:"plan"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AgentsConfig controls the agent pool.
type AgentsConfig struct {
	// MaxSlots is the fixed number of worker slots (default: 3).
	MaxSlots int `mapstructure:"max_slots"`
	// Command is the worker binary invoked for each assignment.
	Command string `mapstructure:"command"`
	// Args are arguments passed before the task instruction.
	Args []string `mapstructure:"args"`
	// OutputBufferChunks caps the retained output chunks per slot.
	OutputBufferChunks int `mapstructure:"output_buffer_chunks"`
}

// SyncConfig controls the issue synchronizer.
type SyncConfig struct {
	// IntervalSeconds is how often open issues are re-fetched (default: 30).
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// Label filters the open-issue listing; dropped automatically on a
	// failed fetch before reporting an error state.
	Label string `mapstructure:"label"`
	// InProgressLabel is added to issues when assigned to an agent.
	InProgressLabel string `mapstructure:"in_progress_label"`
	// CompletionComment is posted when closing a completed issue.
	CompletionComment string `mapstructure:"completion_comment"`
}

// PlanConfig controls the plan document layout.
type PlanConfig struct {
	// PhasesDir is the directory holding NN-<slug> phase directories,
	// relative to the project root (default: "phases").
	PhasesDir string `mapstructure:"phases_dir"`
	// RoadmapFile is the roadmap document name (default: "ROADMAP.md").
	RoadmapFile string `mapstructure:"roadmap_file"`
}

// LoggingConfig controls debug logging behavior.
type LoggingConfig struct {
	// Enabled controls whether logging is on (default: true).
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
}

// Interval returns the sync refresh interval as a time.Duration.
func (s *SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Agents: AgentsConfig{
			MaxSlots:           3,
			Command:            "claude",
			Args:               []string{"-p"},
			OutputBufferChunks: 2000,
		},
		Sync: SyncConfig{
			IntervalSeconds:   30,
			Label:             "foreman",
			InProgressLabel:   "in-progress",
			CompletionComment: "Completed by Foreman agent.",
		},
		Plan: PlanConfig{
			PhasesDir:   "phases",
			RoadmapFile: "ROADMAP.md",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("agents.max_slots", defaults.Agents.MaxSlots)
	viper.SetDefault("agents.command", defaults.Agents.Command)
	viper.SetDefault("agents.args", defaults.Agents.Args)
	viper.SetDefault("agents.output_buffer_chunks", defaults.Agents.OutputBufferChunks)

	viper.SetDefault("sync.interval_seconds", defaults.Sync.IntervalSeconds)
	viper.SetDefault("sync.label", defaults.Sync.Label)
	viper.SetDefault("sync.in_progress_label", defaults.Sync.InProgressLabel)
	viper.SetDefault("sync.completion_comment", defaults.Sync.CompletionComment)

	viper.SetDefault("plan.phases_dir", defaults.Plan.PhasesDir)
	viper.SetDefault("plan.roadmap_file", defaults.Plan.RoadmapFile)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper and validates it.
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

// Get returns the current configuration, falling back to defaults if
// loading fails.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "foreman")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".foreman"
	}
	return filepath.Join(home, ".config", "foreman")
}

// StateDir returns the per-project state directory used for logs and locks.
func StateDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".foreman")
}
