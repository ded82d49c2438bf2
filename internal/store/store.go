package store

import "sync"

// Store is the single writer of a State. All transitions go through Apply.
type Store struct {
	mu      sync.RWMutex
	state   State
	pending map[string]struct{}
	// writes counts Begin and End calls
	writes uint64
}

// New returns an empty store
func New() *Store {
	return &Store{pending: make(map[string]struct{})}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Apply runs fn on the current state and installs the result
func (s *Store) Apply(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

// Version returns a counter that changes whenever a write begins or ends
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// ApplyIf runs fn only when no write has begun or ended since version was
// read. It reports whether fn was applied.
func (s *Store) ApplyIf(version uint64, fn func(State) State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writes != version {
		return false
	}
	s.state = fn(s.state)
	return true
}

// Begin marks id as having a remote write in flight. It returns false when a
// write for id is already pending.
func (s *Store) Begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; ok {
		return false
	}
	s.pending[id] = struct{}{}
	s.writes++
	return true
}

// End clears the pending marker for id
func (s *Store) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	s.writes++
}

// Pending reports whether id has a remote write in flight
func (s *Store) Pending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pending[id]
	return ok
}

// Busy reports whether any write is in flight
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending) > 0
}
