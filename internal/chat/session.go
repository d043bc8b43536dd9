package chat

import "sync"

// Session is the authenticated user as this subsystem sees it. It is
// passed explicitly into operations instead of being read from ambient
// global state.
type Session struct {
	ID          string
	DisplayName string
	PhotoURL    string
}

// SessionState tracks the current session for a long-lived consumer (a
// realtime connection) and notifies observers on login/logout so
// key-scoped subscriptions can re-evaluate.
type SessionState struct {
	mu        sync.Mutex
	cur       Session
	active    bool
	observers map[int]func(Session, bool)
	next      int
}

func NewSessionState() *SessionState {
	return &SessionState{observers: make(map[int]func(Session, bool))}
}

// Set replaces the current session. active=false means logged out.
func (s *SessionState) Set(sess Session, active bool) {
	s.mu.Lock()
	s.cur = sess
	s.active = active
	obs := make([]func(Session, bool), 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.mu.Unlock()

	for _, fn := range obs {
		fn(sess, active)
	}
}

// Current returns the session and whether anyone is logged in.
func (s *SessionState) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur, s.active
}

// OnChange registers an observer called on every Set. The returned cancel
// unregisters it.
func (s *SessionState) OnChange(fn func(Session, bool)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}
