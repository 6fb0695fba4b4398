package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPingTimeout bounds the connectivity check done by NewClient.
const DefaultPingTimeout = 3 * time.Second

// Option adjusts the parsed client options.
type Option func(*redis.Options)

// WithPoolSize caps the number of connections to Redis.
func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

// WithKeyTimeouts sets the read and write timeouts.
func WithKeyTimeouts(d time.Duration) Option {
	return func(o *redis.Options) {
		if d > 0 {
			o.ReadTimeout = d
			o.WriteTimeout = d
		}
	}
}

// NewClient creates a Redis client from a redis:// URL and checks that it answers.
func NewClient(ctx context.Context, redisURL string, opts ...Option) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
