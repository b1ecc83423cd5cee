package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLockService is an in-process lock for single-instance deployments
// and tests. Expired entries are reclaimed lazily on the next Acquire.
type MemoryLockService struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// now is swapped out in tests.
	now func() time.Time
}

// NewMemoryLockService creates an empty in-memory lock service.
func NewMemoryLockService() *MemoryLockService {
	return &MemoryLockService{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire takes the lock unless a live entry exists for the key.
func (s *MemoryLockService) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, held := s.locks[key]; held && expiry.After(now) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (s *MemoryLockService) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}
