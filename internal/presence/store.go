// Package presence tracks which users currently hold a live socket.
package presence

import "sync"

// Store maps user IDs to their active connection. A user has at most
// one tracked connection; reconnecting replaces the previous entry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add records connID as the user's active connection, displacing
	// any previous one.
	Add(userID, connID string)
	// Remove drops the user's entry, but only if connID still is the
	// tracked connection. A stale disconnect from a replaced socket
	// must not knock the newer connection offline.
	Remove(userID, connID string)
	// Snapshot returns the IDs of all currently-online users.
	Snapshot() []string
	// IsOnline reports whether the user has a tracked connection.
	IsOnline(userID string) bool
}

// MemoryStore is the in-process Store used by a single server instance.
type MemoryStore struct {
	mu    sync.RWMutex
	conns map[string]string // userID -> connID
}

// NewMemoryStore creates an empty in-memory presence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conns: make(map[string]string),
	}
}

func (s *MemoryStore) Add(userID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[userID] = connID
}

func (s *MemoryStore) Remove(userID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[userID] == connID {
		delete(s.conns, userID)
	}
}

func (s *MemoryStore) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.conns))
	for userID := range s.conns {
		users = append(users, userID)
	}
	return users
}

func (s *MemoryStore) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conns[userID]
	return ok
}
