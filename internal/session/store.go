package session

import "sync"

// Store holds the access credential for one browsing session. It performs no
// validation; expiry checks belong to the token clock and callers.
//
// The initialized flag records whether session restoration has settled for
// this browsing session. It is intentionally untouched by Set and Clear:
// a cleared credential after a failed renewal does not mean the session
// needs restoring again.
type Store struct {
	mu          sync.RWMutex
	credential  string
	initialized bool
}

// NewStore returns an empty, uninitialized store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current credential. The second return is false when no
// credential is held.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential != ""
}

// Set replaces the held credential.
func (s *Store) Set(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
}

// Clear drops the held credential.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
}

// Initialized reports whether restoration has run for this session.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// MarkInitialized records that restoration has settled.
func (s *Store) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}
