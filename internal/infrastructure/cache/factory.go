package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/shared"
	"github.com/velvet/backend/internal/infrastructure/config"
)

// Nonce store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NonceStoreFactory creates nonce stores based on configuration
type NonceStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// NonceStoreFactoryOption is a functional option for configuring the factory
type NonceStoreFactoryOption func(*NonceStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) NonceStoreFactoryOption {
	return func(f *NonceStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) NonceStoreFactoryOption {
	return func(f *NonceStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewNonceStoreFactory creates a new factory
func NewNonceStoreFactory(cfg config.RedisConfig, opts ...NonceStoreFactoryOption) *NonceStoreFactory {
	f := &NonceStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the store for backend. A redis backend that cannot be
// reached falls back to memory when allowed.
func (f *NonceStoreFactory) Create(backend string) (shared.NonceStore, error) {
	switch backend {
	case "", BackendMemory:
		f.logger.Info("using in-memory OAuth nonce store")
		return NewInMemoryNonceStore(0), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unknown nonce store backend %q", backend)
	}

	store, err := NewRedisNonceStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis OAuth nonce store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for OAuth nonces but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory OAuth nonce store. "+
		"States issued by one instance cannot be redeemed on another.",
		zap.Error(err),
	)
	return NewInMemoryNonceStore(0), nil
}
