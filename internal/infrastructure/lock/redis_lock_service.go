// Package lock provides per-vendor sync locks. A lock prevents two
// concurrent syncs of the same vendor; it carries a TTL so a crashed run
// never wedges the vendor forever.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLockService implements the sync lock on Redis. This is the
// deployment choice when multiple instances share the sync workload.
type RedisLockService struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisLockService creates a Redis-backed lock service and verifies
// connectivity.
func NewRedisLockService(cfg RedisConfig) (*RedisLockService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLockService{
		client:    client,
		keyPrefix: "sync:lock:",
	}, nil
}

// NewRedisLockServiceWithClient creates a lock service with an existing
// Redis client. Useful for testing or when sharing a client across
// components.
func NewRedisLockServiceWithClient(client *redis.Client, keyPrefix string) *RedisLockService {
	if keyPrefix == "" {
		keyPrefix = "sync:lock:"
	}
	return &RedisLockService{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire takes the lock for a key with a TTL. Returns false when the lock
// is already held. Uses SETNX so acquisition is atomic across instances.
func (s *RedisLockService) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (s *RedisLockService) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisLockService) Close() error {
	return s.client.Close()
}
