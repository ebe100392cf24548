package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis connection defaults.
const (
	defaultRedisAddr  = "localhost:6379"
	redisDialTimeout  = 5 * time.Second
	redisReadTimeout  = 3 * time.Second
	redisWriteTimeout = 3 * time.Second
	redisPoolSize     = 10
	redisMinIdleConns = 2
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key, so several deployments can share a
	// database.
	Prefix string
}

// Redis stores values as plain Redis strings without expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis backend. The connection is lazy; call Ping to
// check it.
func NewRedis(opts RedisOptions) *Redis {
	if opts.Addr == "" {
		opts.Addr = defaultRedisAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisReadTimeout,
		WriteTimeout: redisWriteTimeout,
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
	})
	return NewRedisFromClient(client, opts.Prefix)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Name implements Backend.
func (r *Redis) Name() string { return BackendRedis }

// Get implements Store. redis.Nil maps to found=false.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		observe(BackendRedis, "get", start, nil)
		return "", false, nil
	}
	observe(BackendRedis, "get", start, err)
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := r.client.Set(ctx, r.prefix+key, value, 0).Err()
	observe(BackendRedis, "set", start, err)
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping implements Backend.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close implements Backend.
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
