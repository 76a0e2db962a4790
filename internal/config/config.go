// Package config loads and validates gateway configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Engine mode selectors.
const (
	EngineNative = "native"
	EngineRemote = "remote"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Engine    EngineConfig    `mapstructure:"engine"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// EngineConfig selects and configures the conversion backend. Endpoint is
// only consulted in remote mode.
type EngineConfig struct {
	Mode      string `mapstructure:"mode"`
	Endpoint  string `mapstructure:"endpoint"`
	UserAgent string `mapstructure:"user_agent"`
}

// RateLimitConfig sets per-identity budgets for each scope, counted over a
// 60-second window.
type RateLimitConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	TransportPerWindow int  `mapstructure:"transport_per_window"`
	APIPerWindow       int  `mapstructure:"api_per_window"`
	BatchPerWindow     int  `mapstructure:"batch_per_window"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MDGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("engine.mode", EngineNative)
	v.SetDefault("engine.user_agent", "mdgate/1.0")
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.transport_per_window", 120)
	v.SetDefault("ratelimit.api_per_window", 60)
	v.SetDefault("ratelimit.batch_per_window", 10)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Engine.Mode {
	case EngineNative:
	case EngineRemote:
		if c.Engine.Endpoint == "" {
			return fmt.Errorf("engine.endpoint must be set when engine.mode is %q", EngineRemote)
		}
	default:
		return fmt.Errorf("engine.mode must be %q or %q", EngineNative, EngineRemote)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.TransportPerWindow <= 0 {
			return fmt.Errorf("ratelimit.transport_per_window must be > 0 when rate limiting is enabled")
		}
		if c.RateLimit.APIPerWindow <= 0 {
			return fmt.Errorf("ratelimit.api_per_window must be > 0 when rate limiting is enabled")
		}
		if c.RateLimit.BatchPerWindow <= 0 {
			return fmt.Errorf("ratelimit.batch_per_window must be > 0 when rate limiting is enabled")
		}
	}
	return nil
}
