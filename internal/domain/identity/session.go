// Package identity tracks who is signed in to a storefront session and
// notifies the stores that depend on it.
package identity

import (
	"fmt"
	"sync"
)

// Identity is a signed-in principal
type Identity struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Key is the stable per-identity storage key
func (i *Identity) Key() string {
	return fmt.Sprintf("%d", i.UserID)
}

// Same reports whether a and b denote the same principal. Two nil identities
// are the same.
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID == b.UserID
}

// Event is delivered to subscribers on every resolution. Subscribers must
// tolerate repeated events carrying the same identity.
type Event struct {
	Identity *Identity
	Resolved bool
}

// Listener receives identity events
type Listener func(Event)

// Session holds the current identity of one storefront session
type Session struct {
	mu        sync.Mutex
	current   *Identity
	resolved  bool
	closed    bool
	nextID    int
	listeners map[int]Listener
}

// NewSession creates an unresolved session
func NewSession() *Session {
	return &Session{listeners: make(map[int]Listener)}
}

// Current returns the identity, nil when absent, and whether resolution has settled
func (s *Session) Current() (*Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, s.resolved
	}
	cp := *s.current
	return &cp, s.resolved
}

// Resolved reports whether identity resolution has completed
func (s *Session) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Resolve settles the session on id (nil for signed out) and notifies
// subscribers outside the lock.
func (s *Session) Resolve(id *Identity) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if id != nil {
		cp := *id
		id = &cp
	}
	s.current = id
	s.resolved = true
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		var ev Event
		ev.Resolved = true
		if id != nil {
			cp := *id
			ev.Identity = &cp
		}
		l(ev)
	}
}

// SignOut resolves the session to no identity
func (s *Session) SignOut() {
	s.Resolve(nil)
}

// Subscribe registers fn and returns its unsubscribe handle. The handle is
// safe to call more than once.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close drops every subscriber; later Resolve calls are ignored
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = make(map[int]Listener)
}
