// Package session resolves and tracks whether the user is signed in.
// Only the Resolver changes the state.
package session

import "sync"

type State struct {
	mu            sync.RWMutex
	authenticated bool
	credential    string
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Authenticated bool
	Credential    string
}

func (s *State) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *State) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Authenticated: s.authenticated, Credential: s.credential}
}

func (s *State) set(authenticated bool, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = authenticated
	s.credential = credential
}
