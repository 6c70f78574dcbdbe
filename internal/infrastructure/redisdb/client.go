package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/vesync-connect/internal/infrastructure/config"
)

// Default timeouts for Redis operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Client wraps go-redis with VeSync Connect-specific functionality.
//
// It provides connection management and health monitoring for the
// key-value store backing the credential store.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	rdb *redis.Client
	cfg config.RedisConfig
}

// Connect establishes a connection to the Redis server.
//
// It performs the following setup:
//  1. Creates the client from config (address, password, database)
//  2. Verifies connectivity with a ping
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - cfg: Redis configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the initial ping fails
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}

	return &Client{rdb: rdb, cfg: cfg}, nil
}

// Hashes returns the underlying hash-command client used by the credential
// store. Exposed as the narrow interface rather than *redis.Client so the
// store can be tested with a fake.
func (c *Client) Hashes() *redis.Client {
	return c.rdb
}

// HealthCheck verifies the Redis connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := c.rdb.Ping(checkCtx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}

// Close shuts down the Redis connection.
//
// Returns:
//   - error: If the underlying close fails
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
