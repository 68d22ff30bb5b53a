// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL      string
	DBConnectTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	LockExpiry    time.Duration
	LockTries     int

	ConflictRetries int
	// LogRedactionKey is a hex encoded 32-byte key. When set, identifiers in
	// logs are encrypted instead of masked.
	LogRedactionKey string
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then the process environment. The
// boolean reports whether a .env file was found. Every malformed value is
// reported, not just the first.
func Load(files ...string) (*Config, bool, error) {
	foundEnvFile := godotenv.Load(files...) == nil

	r := &reader{}
	cfg := &Config{
		Port:        r.str("PORT", "8080"),
		Environment: r.str("ENV", "production"),
		LogLevel:    r.str("LOG_LEVEL", "info"),

		DatabaseURL:      r.str("DATABASE_URL", ""),
		DBConnectTimeout: r.duration("DB_CONNECT_TIMEOUT", 30*time.Second),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.integer("REDIS_DB", 0),
		CacheTTL:      r.duration("CACHE_TTL", 5*time.Minute),
		LockExpiry:    r.duration("LOCK_EXPIRY", 10*time.Second),
		LockTries:     r.integer("LOCK_TRIES", 32),

		ConflictRetries: r.integer("CONFLICT_RETRIES", 3),
		LogRedactionKey: r.str("LOG_REDACTION_KEY", ""),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
	if r.err != nil {
		return nil, foundEnvFile, r.err
	}
	return cfg, foundEnvFile, nil
}

type reader struct {
	err error
}

func (r *reader) str(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func (r *reader) integer(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		r.err = errors.Join(r.err, fmt.Errorf("%s: %q is not a non-negative integer", key, value))
		return fallback
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		r.err = errors.Join(r.err, fmt.Errorf("%s: %q is not a positive duration", key, value))
		return fallback
	}
	return d
}
