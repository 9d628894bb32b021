// Package config handles configuration loading for assetgate. It supports
// XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for assetgate.
type Config struct {
	Rules   RulesConfig   `mapstructure:"rules"`
	Fix     FixConfig     `mapstructure:"fix"`
	Anomaly AnomalyConfig `mapstructure:"anomaly"`
	History HistoryConfig `mapstructure:"history"`
}

// RulesConfig holds ruleset settings.
type RulesConfig struct {
	// Path is the ruleset file loaded when --rules is not given.
	Path string `mapstructure:"path"`
}

// FixConfig holds auto-fix session settings.
type FixConfig struct {
	// MaxIterations bounds validation passes per session.
	MaxIterations int `mapstructure:"max_iterations"`
	// BestEffort excludes failed-fix errors from the pass gate. Strict
	// (false) is the default.
	BestEffort bool `mapstructure:"best_effort"`
	// WeldTolerance is the vertex merge distance used by weld fixes.
	WeldTolerance float64 `mapstructure:"weld_tolerance"`
	// NamingPattern is the convention rename fixes normalize toward.
	NamingPattern string `mapstructure:"naming_pattern"`
	// StandardMaterial is assigned by material fixes.
	StandardMaterial string `mapstructure:"standard_material"`
}

// AnomalyConfig holds external anomaly scorer settings.
type AnomalyConfig struct {
	// Enabled turns anomaly scoring on for validate and fix runs.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the scorer service URL.
	Endpoint string `mapstructure:"endpoint"`
	// Threshold is the minimum score reported as a violation.
	Threshold float64 `mapstructure:"threshold"`
}

// HistoryConfig holds session archive settings.
type HistoryConfig struct {
	// Enabled turns session archiving on.
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the history database location.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (ASSETGATE_*)
// 2. Project config (.assetgate.yaml in current directory or parent)
// 3. User config (~/.config/assetgate/config.yaml)
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
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("ASSETGATE")
	v.AutomaticEnv()
	v.BindEnv("anomaly.endpoint", "ASSETGATE_ANOMALY_ENDPOINT")
	v.BindEnv("rules.path", "ASSETGATE_RULES")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
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
	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("rules.path", "rules.yaml")

	v.SetDefault("fix.max_iterations", 3)
	v.SetDefault("fix.best_effort", false)
	v.SetDefault("fix.weld_tolerance", 0.001)
	v.SetDefault("fix.naming_pattern", `^[a-z][a-z0-9_]*$`)
	v.SetDefault("fix.standard_material", "standardSurface")

	v.SetDefault("anomaly.enabled", false)
	v.SetDefault("anomaly.endpoint", "")
	v.SetDefault("anomaly.threshold", 0.5)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
}

// getUserConfigDir returns the XDG config directory for assetgate.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetgate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "assetgate")
	}
	return filepath.Join(home, ".config", "assetgate")
}

// findProjectConfig searches for .assetgate.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".assetgate.yaml")
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

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Rules: RulesConfig{Path: "rules.yaml"},
		Fix: FixConfig{
			MaxIterations:    3,
			BestEffort:       false,
			WeldTolerance:    0.001,
			NamingPattern:    `^[a-z][a-z0-9_]*$`,
			StandardMaterial: "standardSurface",
		},
		Anomaly: AnomalyConfig{
			Enabled:   false,
			Threshold: 0.5,
		},
		History: HistoryConfig{Enabled: true},
	}
}
