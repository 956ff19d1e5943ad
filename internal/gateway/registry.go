package gateway

import "sync"

// Registry indexes the sessions of this process by id and by user.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byUser map[int64]map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Session),
		byUser: make(map[int64]map[string]*Session),
	}
}

// Add registers s.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[s.ID] = s
	sessions, ok := r.byUser[s.UserID]
	if !ok {
		sessions = make(map[string]*Session)
		r.byUser[s.UserID] = sessions
	}
	sessions[s.ID] = s
}

// Remove unregisters s. It reports whether s was registered.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byID[s.ID] != s {
		return false
	}
	delete(r.byID, s.ID)
	if sessions, ok := r.byUser[s.UserID]; ok {
		delete(sessions, s.ID)
		if len(sessions) == 0 {
			delete(r.byUser, s.UserID)
		}
	}
	return true
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// UserSessions returns the sessions of userID.
func (r *Registry) UserSessions(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.byUser[userID]
	out := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s)
	}
	return out
}

// HasUser reports whether userID has any session on this process.
func (r *Registry) HasUser(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Online reports whether userID has a session with an attached socket.
func (r *Registry) Online(userID int64) bool {
	for _, s := range r.UserSessions(userID) {
		if s.Connected() {
			return true
		}
	}
	return false
}

// Local filters ids down to users with sessions on this process, dropping
// duplicates.
func (r *Registry) Local(ids []int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if len(r.byUser[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All returns every session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}
