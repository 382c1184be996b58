package session

import (
	"errors"
	"sync"

	"github.com/spec-kit/user-console/internal/domain"
)

// ErrNoIdentity is returned when a partial update targets an empty store.
var ErrNoIdentity = errors.New("session: no identity to update")

// IdentityStore holds the authenticated identity for one browsing session.
type IdentityStore struct {
	mu       sync.RWMutex
	identity *domain.User
}

// NewIdentityStore returns an empty identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{}
}

// Get returns a copy of the current identity.
func (s *IdentityStore) Get() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.User{}, false
	}
	return *s.identity, true
}

// Set replaces the identity wholesale.
func (s *IdentityStore) Set(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &user
}

// Update shallow-merges the patch into the existing identity. Updating an
// absent identity is an error rather than silently materializing a partial
// record.
func (s *IdentityStore) Update(patch domain.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ErrNoIdentity
	}
	if patch.Name != nil {
		s.identity.Name = *patch.Name
	}
	if patch.Email != nil {
		s.identity.Email = *patch.Email
	}
	if patch.Role != nil {
		s.identity.Role = *patch.Role
	}
	if patch.UpdatedAt != nil {
		s.identity.UpdatedAt = patch.UpdatedAt
	}
	if patch.LastLoginAt != nil {
		s.identity.LastLoginAt = patch.LastLoginAt
	}
	return nil
}

// Clear drops the identity.
func (s *IdentityStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}
