package orchestrator

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry maps session ids to live sessions. With a positive bound the
// least recently used session is evicted when a new one would exceed it.
// A session with a turn in flight stays reachable after eviction, so
// concurrent turns for one id always share the same *Session.
type Registry struct {
	orch *Orchestrator

	mu       sync.Mutex
	sessions map[string]*Session
	cache    *lru.Cache[string, *Session]
	inflight map[string]*Session
}

func newRegistry(orch *Orchestrator, maxSessions int) (*Registry, error) {
	r := &Registry{
		orch:     orch,
		inflight: make(map[string]*Session),
	}
	if maxSessions > 0 {
		cache, err := lru.New[string, *Session](maxSessions)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	} else {
		r.sessions = make(map[string]*Session)
	}
	return r, nil
}

// GetOrCreate returns the session for id, creating it on first use. The same
// id yields the same *Session until it is evicted.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(id)
}

func (r *Registry) getOrCreateLocked(id string) *Session {
	if s, ok := r.lookupLocked(id); ok {
		return s
	}
	s, ok := r.inflight[id]
	if !ok {
		s = newSession(id, r.orch)
	}
	if r.cache != nil {
		r.cache.Add(id, s)
	} else {
		r.sessions[id] = s
	}
	return s
}

func (r *Registry) lookupLocked(id string) (*Session, bool) {
	if r.cache != nil {
		return r.cache.Get(id)
	}
	s, ok := r.sessions[id]
	return s, ok
}

// acquire pins the session for id while a turn runs on it.
func (r *Registry) acquire(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.getOrCreateLocked(id)
	s.refs++
	r.inflight[id] = s
	return s
}

func (r *Registry) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.refs--
	if s.refs <= 0 {
		s.refs = 0
		delete(r.inflight, s.id)
	}
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		return r.cache.Peek(id)
	}
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		return r.cache.Len()
	}
	return len(r.sessions)
}
