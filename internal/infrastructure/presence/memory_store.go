package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process presence store used in development
// and tests. Horizontally scaled deployments use RedisStore instead.
type MemoryStore struct {
	mu       sync.RWMutex
	conns    map[string]map[string]time.Time // userID -> connID -> expiry
	lastSeen map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conns:    make(map[string]map[string]time.Time),
		lastSeen: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Touch(ctx context.Context, userID, connID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conns[userID] == nil {
		s.conns[userID] = make(map[string]time.Time)
	}
	s.conns[userID][connID] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, userID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conns, ok := s.conns[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(s.conns, userID)
		}
	}
	s.lastSeen[userID] = time.Now()
	return nil
}

func (s *MemoryStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	for _, expiry := range s.conns[userID] {
		if expiry.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.lastSeen[userID]
	return ts, ok, nil
}
