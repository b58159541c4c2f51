package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

// Store retains order responses so retried requests replay instead of re-running.
// Entries older than ttl are treated as absent; a zero ttl keeps them forever.
type Store struct {
	mu    sync.RWMutex
	items map[string]ports.StoredResponse
	ttl   time.Duration
	clock clock.Clock
}

// NewStore creates a new in-memory idempotency store.
func NewStore(ttl time.Duration, clk clock.Clock) *Store {
	return &Store{
		items: make(map[string]ports.StoredResponse),
		ttl:   ttl,
		clock: clk,
	}
}

// Get returns the stored response for key if present and fresh.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.clock.Now().Sub(value.CreatedAt) > s.ttl {
		return nil, nil
	}
	resp := value
	resp.Body = append([]byte(nil), value.Body...)
	return &resp, nil
}

// Save keeps the first response stored for a key.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok && (s.ttl <= 0 || s.clock.Now().Sub(existing.CreatedAt) <= s.ttl) {
		return nil
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = s.clock.Now()
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = response
	return nil
}
