// Package config handles configuration loading and management for astralis.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for astralis.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Scheduling   SchedulingConfig   `mapstructure:"scheduling"`
	Database     DatabaseConfig     `mapstructure:"database"`
}

// AnthropicConfig holds Anthropic API settings for context-aware slot ranking.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OrchestratorConfig holds orchestrator runtime settings.
type OrchestratorConfig struct {
	// EvaluationTimeout bounds a single task evaluation.
	EvaluationTimeout time.Duration `mapstructure:"evaluation_timeout"`
	// BusBufferSize is the per-subscriber event channel buffer.
	BusBufferSize int `mapstructure:"bus_buffer_size"`
}

// SchedulingConfig holds suggestion engine settings.
type SchedulingConfig struct {
	WorkStartHour      int `mapstructure:"work_start_hour"`
	WorkEndHour        int `mapstructure:"work_end_hour"`
	GranularityMinutes int `mapstructure:"granularity_minutes"`
	ScanDays           int `mapstructure:"scan_days"`
	MaxCandidates      int `mapstructure:"max_candidates"`
	TopN               int `mapstructure:"top_n"`
}

// DatabaseConfig holds state database settings.
type DatabaseConfig struct {
	// Path overrides the default database location when set.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, ASTRALIS_*)
// 2. Project config (.astralis.yaml in current directory or parent)
// 3. User config (~/.config/astralis/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("ASTRALIS")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("database.path", "ASTRALIS_DB_PATH")
	v.BindEnv("orchestrator.evaluation_timeout", "ASTRALIS_EVALUATION_TIMEOUT")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Database.Path = expandEnv(cfg.Database.Path)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Database.Path = expandEnv(cfg.Database.Path)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("orchestrator.evaluation_timeout", cfg.Orchestrator.EvaluationTimeout.String())
	v.Set("orchestrator.bus_buffer_size", cfg.Orchestrator.BusBufferSize)
	v.Set("scheduling.work_start_hour", cfg.Scheduling.WorkStartHour)
	v.Set("scheduling.work_end_hour", cfg.Scheduling.WorkEndHour)
	v.Set("scheduling.granularity_minutes", cfg.Scheduling.GranularityMinutes)
	v.Set("scheduling.scan_days", cfg.Scheduling.ScanDays)
	v.Set("scheduling.max_candidates", cfg.Scheduling.MaxCandidates)
	v.Set("scheduling.top_n", cfg.Scheduling.TopN)
	v.Set("database.path", cfg.Database.Path)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("orchestrator.evaluation_timeout", "30s")
	v.SetDefault("orchestrator.bus_buffer_size", 64)

	v.SetDefault("scheduling.work_start_hour", 9)
	v.SetDefault("scheduling.work_end_hour", 17)
	v.SetDefault("scheduling.granularity_minutes", 30)
	v.SetDefault("scheduling.scan_days", 5)
	v.SetDefault("scheduling.max_candidates", 200)
	v.SetDefault("scheduling.top_n", 5)

	v.SetDefault("database.path", "")
}

// getUserConfigDir returns the XDG config directory for astralis.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "astralis")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "astralis")
	}
	return filepath.Join(home, ".config", "astralis")
}

// findProjectConfig searches for .astralis.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".astralis.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			EvaluationTimeout: 30 * time.Second,
			BusBufferSize:     64,
		},
		Scheduling: SchedulingConfig{
			WorkStartHour:      9,
			WorkEndHour:        17,
			GranularityMinutes: 30,
			ScanDays:           5,
			MaxCandidates:      200,
			TopN:               5,
		},
	}
}
