// Package config provides configuration management for the analytics engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Feed   FeedConfig   `mapstructure:"feed"`
	UI     UIConfig     `mapstructure:"ui"`
}

// EngineConfig holds the numeric parameters of the analytics core.
type EngineConfig struct {
	// RiskFreeRate is the annualized risk-free rate fed to Black-Scholes.
	// Slowly changing external parameter, not computed by the engine.
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	// DefaultIV substitutes for contracts whose feed IV is zero or missing.
	DefaultIV float64 `mapstructure:"default_iv"`
	// AssumedVolatility drives the probability-of-profit estimate. The
	// original used a hard-coded 20%; kept configurable on purpose.
	AssumedVolatility float64 `mapstructure:"assumed_volatility"`
	// PayoffWidth is the payoff curve range as a fraction of spot.
	PayoffWidth float64 `mapstructure:"payoff_width"`
	// PayoffSamples is the number of points on the payoff curve.
	PayoffSamples int `mapstructure:"payoff_samples"`
}

// CacheConfig holds snapshot-cache configuration.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// FeedConfig holds snapshot feed configuration.
type FeedConfig struct {
	// DataDir is where the file-based provider looks for snapshot files.
	DataDir string `mapstructure:"data_dir"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/chainalytics"
	}
	return filepath.Join(home, ".config", "chainalytics")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			RiskFreeRate:      0.05,
			DefaultIV:         0.20,
			AssumedVolatility: 0.20,
			PayoffWidth:       0.40,
			PayoffSamples:     50,
		},
		Cache: CacheConfig{TTL: 5 * time.Minute},
		Feed:  FeedConfig{DataDir: filepath.Join(DefaultConfigDir(), "snapshots")},
		UI:    UIConfig{ColorEnabled: true, DateFormat: "02-Jan-2006"},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	def := Default()
	v.SetDefault("engine.risk_free_rate", def.Engine.RiskFreeRate)
	v.SetDefault("engine.default_iv", def.Engine.DefaultIV)
	v.SetDefault("engine.assumed_volatility", def.Engine.AssumedVolatility)
	v.SetDefault("engine.payoff_width", def.Engine.PayoffWidth)
	v.SetDefault("engine.payoff_samples", def.Engine.PayoffSamples)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("feed.data_dir", def.Feed.DataDir)
	v.SetDefault("ui.color_enabled", def.UI.ColorEnabled)
	v.SetDefault("ui.date_format", def.UI.DateFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHAINALYTICS_RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.RiskFreeRate = f
		}
	}
	if v := os.Getenv("CHAINALYTICS_DATA_DIR"); v != "" {
		cfg.Feed.DataDir = v
	}
	if v := os.Getenv("CHAINALYTICS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.RiskFreeRate < 0 || c.Engine.RiskFreeRate > 1 {
		return fmt.Errorf("risk_free_rate must be a fraction between 0 and 1")
	}
	if c.Engine.DefaultIV <= 0 || c.Engine.DefaultIV > 5 {
		return fmt.Errorf("default_iv must be a positive fraction")
	}
	if c.Engine.AssumedVolatility <= 0 || c.Engine.AssumedVolatility > 5 {
		return fmt.Errorf("assumed_volatility must be a positive fraction")
	}
	if c.Engine.PayoffWidth <= 0 || c.Engine.PayoffWidth >= 1 {
		return fmt.Errorf("payoff_width must be between 0 and 1")
	}
	if c.Engine.PayoffSamples < 2 {
		return fmt.Errorf("payoff_samples must be at least 2")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	return nil
}
