package session

import (
	"sync"
	"time"
)

// Store is a concurrency-safe keyed holder of sessions. The map is guarded
// by one short-held mutex; each session carries its own lock so mutation
// is serialized per session id while distinct sessions proceed fully in
// parallel. Sessions are never deleted by this core — retention is an
// operational concern outside it.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// now is swappable for tests.
	now func() time.Time
}

type entry struct {
	mu sync.Mutex
	s  *Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// getOrCreateEntry returns the entry for id, creating it atomically so
// concurrent callers with the same id observe the same single session.
func (st *Store) getOrCreateEntry(id string) *entry {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.entries[id]; ok {
		return e
	}
	e = &entry{s: newSession(id, st.now())}
	st.entries[id] = e
	return e
}

// GetOrCreate returns the session for id, creating a fresh one if absent.
// The returned pointer must only be mutated via WithLock.
func (st *Store) GetOrCreate(id string) *Session {
	return st.getOrCreateEntry(id).s
}

// WithLock runs fn with exclusive access to the session for id, creating
// the session first if it does not exist. All mutations fn makes are
// visible to subsequent callers once WithLock returns.
func (st *Store) WithLock(id string, fn func(*Session)) {
	e := st.getOrCreateEntry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.s)
}

// Get returns the session for id without creating one. The boolean is
// false when no such session exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	return e.s, true
}

// Len returns the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// IDs returns the ids of all tracked sessions, in no particular order.
func (st *Store) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.entries))
	for id := range st.entries {
		ids = append(ids, id)
	}
	return ids
}
