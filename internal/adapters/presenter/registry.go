package presenter

import (
	"sync"

	"github.com/mikey/phish-interrogator/internal/core"
)

// slot serialises access to one session
type slot struct {
	mu      sync.Mutex
	pageID  string
	session *core.Session
}

// registry holds at most one live session per host page
type registry struct {
	mu     sync.Mutex
	byID   map[string]*slot
	byPage map[string]string
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[string]*slot),
		byPage: make(map[string]string),
	}
}

// put stores a session for a page, replacing the page's previous session
func (r *registry) put(pageID string, s *core.Session) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.byPage[pageID]; ok {
		delete(r.byID, previous)
	}
	sl := &slot{pageID: pageID, session: s}
	r.byID[s.ID] = sl
	r.byPage[pageID] = s.ID
	return sl
}

func (r *registry) get(id string) (*slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.byID[id]
	return sl, ok
}

// dropPage forgets whatever session the page was showing
func (r *registry) dropPage(pageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPage[pageID]; ok {
		delete(r.byID, id)
		delete(r.byPage, pageID)
	}
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sl, ok := r.byID[id]; ok {
		delete(r.byID, id)
		if r.byPage[sl.pageID] == id {
			delete(r.byPage, sl.pageID)
		}
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
