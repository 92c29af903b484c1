package presence

import (
	"sync"
	"time"
)

// Record is the ephemeral announcement a session makes when it joins the
// presence channel. Nothing here is persisted; a reconnect re-announces.
type Record struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"username"`
	OnlineAt    time.Time `json:"online_at"`
}

type entry struct {
	rec      Record
	sessions int
}

// Tracker keeps ephemeral channel membership keyed by user id. Multiple
// sessions of the same user collapse into one presence key with a session
// refcount, so closing one tab does not mark a user offline while another
// tab lives.
type Tracker struct {
	mu      sync.RWMutex
	members map[string]*entry
}

func NewTracker() *Tracker {
	return &Tracker{members: make(map[string]*entry)}
}

// Join adds one session for the record's user. It reports whether the user
// just came online (first session), which is when a join event should be
// broadcast.
func (t *Tracker) Join(rec Record) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.members[rec.UserID]
	if !ok {
		t.members[rec.UserID] = &entry{rec: rec, sessions: 1}
		return true
	}
	e.sessions++
	e.rec = rec
	return false
}

// Leave removes one session for the user. It reports whether the user went
// offline (last session left), which is when a leave event should be
// broadcast.
func (t *Tracker) Leave(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.members[userID]
	if !ok {
		return false
	}
	e.sessions--
	if e.sessions > 0 {
		return false
	}
	delete(t.members, userID)
	return true
}

// Sync replaces the whole membership map with a full snapshot, one session
// per record.
func (t *Tracker) Sync(snapshot []Record) {
	members := make(map[string]*entry, len(snapshot))
	for _, rec := range snapshot {
		if e, ok := members[rec.UserID]; ok {
			e.sessions++
			continue
		}
		members[rec.UserID] = &entry{rec: rec, sessions: 1}
	}
	t.mu.Lock()
	t.members = members
	t.mu.Unlock()
}

// Snapshot returns the current membership, used to seed newly-joined
// sessions with a sync event.
func (t *Tracker) Snapshot() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.members))
	for _, e := range t.members {
		out = append(out, e.rec)
	}
	return out
}

// IsOnline reports whether any session of the user is connected.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.members[userID]
	return ok
}

// BulkStatus resolves many users in one pass.
func (t *Tracker) BulkStatus(userIDs []string) map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		_, ok := t.members[id]
		out[id] = ok
	}
	return out
}

// OnlineCount returns the number of distinct users online.
func (t *Tracker) OnlineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.members)
}
