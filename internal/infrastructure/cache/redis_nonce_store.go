package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velvet/backend/internal/domain/shared"
)

const defaultNonceKeyPrefix = "oauth:state:nonce:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisNonceStore implements NonceStore using Redis
// Multiple instances behind a load balancer share the same nonces
type RedisNonceStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisNonceStore connects to Redis and verifies the connection
func NewRedisNonceStore(cfg RedisConfig) (*RedisNonceStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisNonceStoreWithClient(client, ""), nil
}

// NewRedisNonceStoreWithClient creates a store with an existing Redis client
func NewRedisNonceStoreWithClient(client *redis.Client, keyPrefix string) *RedisNonceStore {
	if keyPrefix == "" {
		keyPrefix = defaultNonceKeyPrefix
	}
	return &RedisNonceStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Remember records nonce with ttl. SETNX keeps an already issued nonce from
// being re-armed.
func (s *RedisNonceStore) Remember(ctx context.Context, nonce string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+nonce, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}
	if !ok {
		return fmt.Errorf("nonce already issued: %w", shared.ErrConflict)
	}
	return nil
}

// Consume atomically deletes nonce with GETDEL and reports whether it existed
func (s *RedisNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	err := s.client.GetDel(ctx, s.keyPrefix+nonce).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return true, nil
}

// Close closes the Redis client
func (s *RedisNonceStore) Close() error {
	return s.client.Close()
}

// Ensure RedisNonceStore implements NonceStore
var _ shared.NonceStore = (*RedisNonceStore)(nil)
