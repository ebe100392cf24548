// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/brokerflow/internal/adapters/genai"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
)

// Config contains process configuration. Keys are flat so that every field
// maps to one BROKERFLOW_<KEY> environment variable.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`

	// KVBackend selects persistence: memory, redis or sqlite.
	KVBackend     string `koanf:"kv_backend"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`
	SQLitePath    string `koanf:"sqlite_path"`

	// GeminiAPIKey is used until a key is saved through the settings API.
	GeminiAPIKey     string `koanf:"gemini_api_key"`
	GeminiModel      string `koanf:"gemini_model"`
	GeminiBaseURL    string `koanf:"gemini_base_url"`
	GeminiTimeoutSec int    `koanf:"gemini_timeout_sec"`
	GeminiMaxRetries int    `koanf:"gemini_max_retries"`

	// WorkerCount sets the number of brief workers.
	WorkerCount int `koanf:"worker_count"`

	// BriefQueueSize bounds the in-memory brief queue.
	BriefQueueSize int `koanf:"queue_size"`
}

// New returns a Config with defaults. Context is accepted first to follow the
// project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		CORSOrigins:      "*",
		KVBackend:        kvstore.BackendSQLite,
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "",
		SQLitePath:       kvstore.DefaultSQLitePath,
		GeminiModel:      genai.DefaultModel,
		GeminiBaseURL:    genai.DefaultBaseURL,
		GeminiTimeoutSec: 60,
		GeminiMaxRetries: 2,
		WorkerCount:      1,
		BriefQueueSize:   64,
	}
}

// Validate checks the values that have no safe fallback.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.BriefQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.GeminiTimeoutSec < 1:
		return fmt.Errorf("%w: gemini_timeout_sec must be positive", ErrInvalidConfig)
	case c.GeminiMaxRetries < 0:
		return fmt.Errorf("%w: gemini_max_retries must not be negative", ErrInvalidConfig)
	}
	switch c.KVBackend {
	case kvstore.BackendMemory, kvstore.BackendRedis, kvstore.BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown kv_backend %q", ErrInvalidConfig, c.KVBackend)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// GeminiTimeout returns the per-call generation timeout.
func (c *Config) GeminiTimeout() time.Duration {
	return time.Duration(c.GeminiTimeoutSec) * time.Second
}

// AllowedOrigins splits CORSOrigins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// KV returns the persistence settings.
func (c *Config) KV() kvstore.Config {
	return kvstore.Config{
		Backend:       c.KVBackend,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
		SQLitePath:    c.SQLitePath,
	}
}
