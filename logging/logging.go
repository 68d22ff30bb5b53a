// Package logging builds the service's zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects the baseline logger profile.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
	EnvironmentLocal       Environment = "local"
)

// Config contains the logger initialization inputs.
type Config struct {
	Environment Environment
	Level       string
}

func (c Config) validate() error {
	switch c.Environment {
	case EnvironmentProduction, EnvironmentDevelopment, EnvironmentLocal:
		return nil
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
}

// New creates a JSON logger and returns it with a runtime-adjustable level.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	if err := cfg.validate(); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid logging config: %w", err)
	}

	level, err := resolveLevel(cfg)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	zcfg := buildConfig(cfg.Environment)
	zcfg.Level = level
	zcfg.DisableStacktrace = true

	logger, err := zcfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, level, nil
}

func resolveLevel(cfg Config) (zap.AtomicLevel, error) {
	if strings.TrimSpace(cfg.Level) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(cfg.Level); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid level %q: %w", cfg.Level, err)
		}
		return zap.NewAtomicLevelAt(parsed), nil
	}

	if cfg.Environment != EnvironmentProduction {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
}

func buildConfig(env Environment) zap.Config {
	cfg := zap.NewProductionConfig()
	if env != EnvironmentProduction {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg
}
