// Package config loads bridge settings from the environment.
//
// Values come from BRIDGE_* environment variables, optionally seeded from a
// .env file. Nested keys use underscores: server.rate_limit is read from
// BRIDGE_SERVER_RATE_LIMIT.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/http-bridge/bridge"
	"github.com/wippyai/http-bridge/trigger"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "BRIDGE"

// Config holds all configuration for the bridge binary.
type Config struct {
	Bridge bridge.Config
	Server ServerConfig
	Log    LogConfig
}

// ServerConfig selects and configures the trigger.
type ServerConfig struct {
	// Mode is "http" for the HTTP server or "lambda" for API Gateway.
	Mode string `validate:"oneof=http lambda"`
	Addr string `validate:"required_if=Mode http"`
	// RateLimit is requests per second admitted by the trigger; 0 disables it.
	RateLimit float64 `validate:"gte=0"`
	Burst     int     `validate:"gte=0"`
	// MaxBodyBytes caps request bodies accepted by the trigger.
	MaxBodyBytes int64 `validate:"gte=0"`
	// Prewarm initializes the handler before the first request.
	Prewarm bool
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `validate:"oneof=debug info warn error"`
	Development bool
}

// Load reads configuration. With no files, a .env in the working directory
// is loaded if present; named files must exist. Variables already set in
// the environment take precedence over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Bridge: bridge.Config{
			AttributeType:  v.GetString("bridge.attribute_type"),
			InteropType:    v.GetString("bridge.interop_type"),
			Namespace:      v.GetString("bridge.namespace"),
			PairType:       v.GetString("bridge.pair_type"),
			WarmupURI:      v.GetString("bridge.warmup_uri"),
			WarmupProperty: v.GetString("bridge.warmup_property"),
		},
		Server: ServerConfig{
			Mode:         strings.ToLower(v.GetString("server.mode")),
			Addr:         v.GetString("server.addr"),
			RateLimit:    v.GetFloat64("server.rate_limit"),
			Burst:        v.GetInt("server.burst"),
			MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
			Prewarm:      v.GetBool("server.prewarm"),
		},
		Log: LogConfig{
			Level:       strings.ToLower(v.GetString("log.level")),
			Development: v.GetBool("log.development"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := bridge.DefaultConfig()
	v.SetDefault("bridge.attribute_type", d.AttributeType)
	v.SetDefault("bridge.interop_type", d.InteropType)
	v.SetDefault("bridge.namespace", d.Namespace)
	v.SetDefault("bridge.pair_type", d.PairType)
	v.SetDefault("bridge.warmup_uri", d.WarmupURI)
	v.SetDefault("bridge.warmup_property", d.WarmupProperty)

	v.SetDefault("server.mode", "http")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.burst", 1)
	v.SetDefault("server.max_body_bytes", trigger.DefaultMaxBodyBytes)
	v.SetDefault("server.prewarm", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

var validate = validator.New()

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NewLogger builds the process logger.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
