package realtime

import (
	"sync"
)

// Router tracks active websocket sessions. Sessions are multiplexed: one
// socket carries events for all of a user's conversations, so there are no
// per-conversation rooms. Multiple sessions per user are tracked
// independently; no cross-tab coordination is attempted.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Session            // sessionID -> session
	userSessions map[string]map[string]*Session // userID -> sessionID -> session
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Session),
		userSessions: make(map[string]map[string]*Session),
	}
}

// Attach registers a session and starts its write loop.
func (r *Router) Attach(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	byUser := r.userSessions[s.UserID]
	if byUser == nil {
		byUser = make(map[string]*Session)
		r.userSessions[s.UserID] = byUser
	}
	byUser[s.ID] = s
	r.mu.Unlock()

	s.Start()
}

// Detach removes a session if it is still tracked.
func (r *Router) Detach(s *Session) {
	r.mu.Lock()
	delete(r.sessions, s.ID)
	if byUser, ok := r.userSessions[s.UserID]; ok {
		delete(byUser, s.ID)
		if len(byUser) == 0 {
			delete(r.userSessions, s.UserID)
		}
	}
	r.mu.Unlock()
}

// NotifyUser delivers payload to every session of the given user and returns
// how many sessions accepted it.
func (r *Router) NotifyUser(userID string, payload []byte) int {
	r.mu.RLock()
	byUser := r.userSessions[userID]
	targets := make([]*Session, 0, len(byUser))
	for _, s := range byUser {
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// BroadcastAll delivers payload to every tracked session, optionally
// skipping one session id (used for presence echoes).
func (r *Router) BroadcastAll(payload []byte, excludeSessionID string) int {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if excludeSessionID != "" && s.ID == excludeSessionID {
			continue
		}
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close terminates all tracked sessions and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.userSessions = make(map[string]map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close(1001, "router shutdown")
	}
}
