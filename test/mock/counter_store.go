// test/mock/counter_store.go
package mock

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is an in-memory counter store for tests. It honors the
// same contract as the Redis-backed store: atomic increments, an expiry that
// can only be armed once per key, and absent keys reading as (0, false).
// Setting Err makes every operation fail with it.
type MemoryCounterStore struct {
	mu          sync.Mutex
	counts      map[string]int64
	expiry      map[string]time.Duration
	armAttempts map[string]int

	GetCalls       int
	IncrementCalls int
	Err            error
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counts:      make(map[string]int64),
		expiry:      make(map[string]time.Duration),
		armAttempts: make(map[string]int),
	}
}

func (s *MemoryCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.IncrementCalls++
	s.counts[key]++
	return s.counts[key], nil
}

func (s *MemoryCounterStore) SetExpiryIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	s.armAttempts[key]++
	if _, armed := s.expiry[key]; armed {
		return false, nil
	}
	s.expiry[key] = ttl
	return true, nil
}

func (s *MemoryCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, false, s.Err
	}
	s.GetCalls++
	count, found := s.counts[key]
	return count, found, nil
}

func (s *MemoryCounterStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, false, s.Err
	}
	ttl, armed := s.expiry[key]
	return ttl, armed, nil
}

func (s *MemoryCounterStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.counts, key)
	delete(s.expiry, key)
	delete(s.armAttempts, key)
	return nil
}

// Count reads a key's raw counter without going through the store contract.
func (s *MemoryCounterStore) Count(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

// ArmAttempts reports how many times an expiry was requested for key.
func (s *MemoryCounterStore) ArmAttempts(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armAttempts[key]
}

// Expiry reports the armed window for key, if any.
func (s *MemoryCounterStore) Expiry(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, armed := s.expiry[key]
	return ttl, armed
}

// Keys reports how many live counter keys the store holds.
func (s *MemoryCounterStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counts)
}
