// Package cache keeps account snapshots in Redis and provides a Redis-backed
// per-account lock for running several service instances side by side.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"simple-banking/ledger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bank-accounts:"

var _ ledger.AccountCache = (*AccountCache)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// AccountCache stores one JSON account snapshot per account number.
type AccountCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewAccountCache returns a cache whose entries expire after ttl. A zero ttl
// keeps entries until they are invalidated.
func NewAccountCache(client redis.UniversalClient, ttl time.Duration) *AccountCache {
	return &AccountCache{client: client, ttl: ttl}
}

func key(number string) string {
	return keyPrefix + number
}

// Get returns the cached snapshot and whether there was one.
func (c *AccountCache) Get(ctx context.Context, number string) (ledger.AccountSnapshot, bool, error) {
	var snapshot ledger.AccountSnapshot

	data, err := c.client.Get(ctx, key(number)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snapshot, false, nil
	}
	if err != nil {
		return snapshot, false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, false, fmt.Errorf("cache decode: %w", err)
	}
	return snapshot, true, nil
}

func (c *AccountCache) Set(ctx context.Context, snapshot ledger.AccountSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(snapshot.AccountNumber), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate deletes the entry for number. Deleting a missing entry is not an
// error.
func (c *AccountCache) Invalidate(ctx context.Context, number string) error {
	if err := c.client.Del(ctx, key(number)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
