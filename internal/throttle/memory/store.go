// Package memory keeps throttle state in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/openkcm/access-gate/internal/throttle"
)

const (
	failurePrefix = "fail:"
	lockPrefix    = "lock:"
)

// Store is a throttle.Store backed by go-cache. State is lost on restart and
// not shared between replicas.
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
}

var _ throttle.Store = (*Store)(nil)

// NewStore returns a Store that purges expired entries every cleanupInterval.
func NewStore(cleanupInterval time.Duration) *Store {
	return &Store{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *Store) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := failurePrefix + key
	// IncrementInt64 keeps the expiration of the first failure.
	if n, err := s.cache.IncrementInt64(k, 1); err == nil {
		return n, nil
	}

	s.cache.Set(k, int64(1), window)
	return 1, nil
}

func (s *Store) Lock(_ context.Context, key string, d time.Duration) error {
	s.cache.Set(lockPrefix+key, struct{}{}, d)
	return nil
}

func (s *Store) LockedFor(_ context.Context, key string) (time.Duration, error) {
	_, expiration, found := s.cache.GetWithExpiration(lockPrefix + key)
	if !found {
		return 0, nil
	}

	remaining := time.Until(expiration)
	if remaining <= 0 {
		return 0, nil
	}
	return remaining, nil
}

func (s *Store) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(failurePrefix + key)
	s.cache.Delete(lockPrefix + key)
	return nil
}
