// Package cache holds the OAuth state nonce stores: an in-memory store for
// single-instance deployments and a Redis store shared across instances.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/velvet/backend/internal/domain/shared"
)

const defaultJanitorInterval = time.Minute

// InMemoryNonceStore implements NonceStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryNonceStore struct {
	mu        sync.Mutex
	expiries  map[string]time.Time
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryNonceStore creates a new in-memory nonce store.
// It starts a janitor goroutine that drops expired nonces every interval;
// a non-positive interval uses one minute. Close stops the janitor.
func NewInMemoryNonceStore(interval time.Duration) *InMemoryNonceStore {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	store := &InMemoryNonceStore{
		expiries: make(map[string]time.Time),
		interval: interval,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Remember records nonce as outstanding for ttl
func (s *InMemoryNonceStore) Remember(_ context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiries[nonce] = time.Now().Add(ttl)
	return nil
}

// Consume deletes nonce and reports whether it was outstanding and unexpired
func (s *InMemoryNonceStore) Consume(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.expiries[nonce]
	if !ok {
		return false, nil
	}
	delete(s.expiries, nonce)
	return time.Now().Before(expiresAt), nil
}

// Close stops the janitor goroutine
// Safe to call multiple times
func (s *InMemoryNonceStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryNonceStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryNonceStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for nonce, expiresAt := range s.expiries {
		if now.After(expiresAt) {
			delete(s.expiries, nonce)
		}
	}
}

// Size returns the number of tracked nonces (for testing/monitoring)
func (s *InMemoryNonceStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiries)
}

// Ensure InMemoryNonceStore implements NonceStore
var _ shared.NonceStore = (*InMemoryNonceStore)(nil)
