package sessions

import (
	"sync"

	"github.com/2beens/formcheck/internal/formcheck"
)

// Registry holds the live sessions of this process. Sessions never share
// state; the lock only guards the map itself.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*formcheck.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*formcheck.Session),
	}
}

func (r *Registry) Add(s *formcheck.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *Registry) Get(id string) (*formcheck.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the session and returns it; only one caller gets ok=true for a given id.
func (r *Registry) Remove(id string) (*formcheck.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Snapshot() []*formcheck.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*formcheck.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	return all
}
