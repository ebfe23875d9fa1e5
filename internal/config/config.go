// Package config loads the gateway configuration from config/gateway.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// Duration wraps time.Duration so values like "30s" parse from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RateLimitConfig holds per-client request throttling settings.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// OracleConfig holds price oracle settings. FetchURL switches the oracle from
// the simulated table fetcher to an external HTTP source.
type OracleConfig struct {
	CacheTTL        Duration `yaml:"cache_ttl"`
	RefreshSchedule string   `yaml:"refresh_schedule"`
	FetchURL        string   `yaml:"fetch_url"`
	FetchKey        string   `yaml:"fetch_key"`
	PricePath       string   `yaml:"price_path"`
}

// EngineConfig parameterizes the conversion and settlement policy knobs.
type EngineConfig struct {
	FeeRate         float64 `yaml:"fee_rate"`
	MaxSlippage     float64 `yaml:"max_slippage"`
	SameAssetPolicy string  `yaml:"same_asset_policy"`
	MixedSplitINR   float64 `yaml:"mixed_split_inr"`
	NEFTAsync       bool    `yaml:"neft_async"`
}

// StoresConfig bounds the in-memory stores.
type StoresConfig struct {
	ConversionCapacity int `yaml:"conversion_capacity"`
	SettlementCapacity int `yaml:"settlement_capacity"`
}

// Config is the root gateway configuration.
type Config struct {
	Server    ServerConfig         `yaml:"server"`
	Logging   logger.LoggingConfig `yaml:"logging"`
	RateLimit RateLimitConfig      `yaml:"rate_limit"`
	Oracle    OracleConfig         `yaml:"oracle"`
	Engine    EngineConfig         `yaml:"engine"`
	Stores    StoresConfig         `yaml:"stores"`
}

// Load reads the configuration from config/gateway.yaml.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "gateway.yaml"))
}

// LoadFromPath reads the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gateway config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse gateway config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration or returns the defaults when the
// file is missing.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Oracle: OracleConfig{
			CacheTTL:        Duration(30 * time.Second),
			RefreshSchedule: "@every 15s",
		},
		Engine: EngineConfig{
			FeeRate:         0.0005,
			MaxSlippage:     0.002,
			SameAssetPolicy: "passthrough",
			MixedSplitINR:   0.70,
			NEFTAsync:       true,
		},
		Stores: StoresConfig{
			ConversionCapacity: 10000,
			SettlementCapacity: 10000,
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Engine.SameAssetPolicy {
	case "passthrough", "reject":
	default:
		return fmt.Errorf("engine.same_asset_policy must be passthrough or reject, got %q", c.Engine.SameAssetPolicy)
	}
	if c.Engine.MixedSplitINR <= 0 || c.Engine.MixedSplitINR >= 1 {
		return fmt.Errorf("engine.mixed_split_inr must be in (0, 1), got %v", c.Engine.MixedSplitINR)
	}
	if c.Engine.FeeRate < 0 || c.Engine.FeeRate >= 1 {
		return fmt.Errorf("engine.fee_rate must be in [0, 1), got %v", c.Engine.FeeRate)
	}
	if c.Engine.MaxSlippage < 0 || c.Engine.MaxSlippage >= 1 {
		return fmt.Errorf("engine.max_slippage must be in [0, 1), got %v", c.Engine.MaxSlippage)
	}
	return nil
}
