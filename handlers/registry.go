package handlers

import (
	"strings"
	"sync"
	"time"

	"leaddesk/backend/browser"
)

// registryEntry is one live lead browser and the API it talks to.
type registryEntry struct {
	browser  *browser.Browser
	api      LeadAPI
	lastUsed time.Time
}

// Registry keeps one browser per (session, subject) pair so pagination and filters
// survive between requests.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	idle    time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry whose browsers are dropped after idle without use.
func NewRegistry(idle time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		idle:    idle,
		now:     time.Now,
	}
}

func registryKey(sessionID, subjectID string) string {
	return sessionID + "|" + subjectID
}

// getOrCreate returns the entry for the pair, building it with create on first use.
// create runs without the registry lock held; when two requests race, the first entry
// stored wins and created is false for the other.
func (r *Registry) getOrCreate(sessionID, subjectID string, create func() (*registryEntry, error)) (entry *registryEntry, created bool, err error) {
	key := registryKey(sessionID, subjectID)
	if e := r.touch(key); e != nil {
		return e, false, nil
	}

	e, err := create()
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[key]; ok {
		existing.lastUsed = r.now()
		return existing, false, nil
	}
	e.lastUsed = r.now()
	r.entries[key] = e
	return e, true, nil
}

func (r *Registry) touch(key string) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil
	}
	e.lastUsed = r.now()
	return e
}

// DropSession forgets every browser of the session.
func (r *Registry) DropSession(sessionID string) int {
	prefix := sessionID + "|"

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

// PurgeExpired drops browsers idle for longer than the registry's idle limit.
func (r *Registry) PurgeExpired() (int64, error) {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of live browsers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
