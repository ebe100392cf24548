// Package kvstore provides the key-value persistence collaborator.
//
// Values are opaque strings (JSON blobs in practice). A missing key is
// reported with found=false, never as an error.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/brokerflow/pkg/metrics"
)

// Logical keys used by the service.
const (
	KeyPolicies   = "brokerflow_policies"
	KeyWeights    = "brokerflow_weights"
	KeyCredential = "brokerflow_gemini_key"
	KeyTimezone   = "brokerflow_timezone"
	KeyCurrency   = "brokerflow_currency"
	KeyCoins      = "brokerflow_coins"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Sentinel kinds for store errors.
var (
	ErrUnknownBackend = errors.New("unknown kv backend")
	ErrClosed         = errors.New("kv store closed")
)

// Store is the get/set contract the domain persists through.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Backend is a Store that owns a connection.
type Backend interface {
	Store
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	SQLitePath    string
}

// Open creates the backend named by cfg.Backend and checks it is reachable.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		b = NewMemory()
	case BackendRedis:
		b = NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case BackendSQLite:
		b, err = NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	if err := b.Ping(ctx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%s backend unreachable: %w", b.Name(), err)
	}
	return b, nil
}

// observe records a single operation outcome.
func observe(backend, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordStoreOperation(backend, op, result, float64(time.Since(start).Microseconds())/1000)
}
