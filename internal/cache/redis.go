// Package cache keeps booking snapshots in Redis for read-through lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "escrow:booking:"
	defaultTTL       = 5 * time.Minute
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Config describes the Redis connection used for booking snapshots.
type Config struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// BookingCache implements escrow.BookingCache on Redis.
type BookingCache struct {
	client    redisClient
	ttl       time.Duration
	keyPrefix string
	closeFn   func() error
}

// NewRedisBookingCache connects a cache to the configured Redis instance and verifies it responds.
func NewRedisBookingCache(ctx context.Context, cfg Config) (*BookingCache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	cache := newBookingCache(client, cfg.TTL, cfg.KeyPrefix)
	cache.closeFn = client.Close
	return cache, nil
}

func newBookingCache(client redisClient, ttl time.Duration, keyPrefix string) *BookingCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &BookingCache{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

// Get returns the cached booking and whether it was present.
func (cache *BookingCache) Get(ctx context.Context, address escrow.BookingAddress) (escrow.Booking, bool, error) {
	data, err := cache.client.Get(ctx, cache.key(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return escrow.Booking{}, false, nil
		}
		return escrow.Booking{}, false, fmt.Errorf("cache get %s: %w", address, err)
	}
	var snapshot escrow.BookingSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return escrow.Booking{}, false, fmt.Errorf("cache decode %s: %w", address, err)
	}
	booking, err := escrow.RestoreBooking(snapshot)
	if err != nil {
		return escrow.Booking{}, false, fmt.Errorf("cache restore %s: %w", address, err)
	}
	return booking, true, nil
}

// Set stores a booking snapshot with the configured TTL.
func (cache *BookingCache) Set(ctx context.Context, booking escrow.Booking) error {
	payload, err := json.Marshal(booking.Snapshot())
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", booking.Address(), err)
	}
	if err := cache.client.Set(ctx, cache.key(booking.Address()), payload, cache.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", booking.Address(), err)
	}
	return nil
}

// Delete evicts a booking.
func (cache *BookingCache) Delete(ctx context.Context, address escrow.BookingAddress) error {
	if err := cache.client.Del(ctx, cache.key(address)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", address, err)
	}
	return nil
}

func (cache *BookingCache) key(address escrow.BookingAddress) string {
	return cache.keyPrefix + address.String()
}

// Close releases the Redis connection pool.
func (cache *BookingCache) Close() error {
	if cache.closeFn == nil {
		return nil
	}
	return cache.closeFn()
}
