package store

import (
	"sync"

	"github.com/agentstation/astronauts/pkg/astronauts"
)

// Hook function types for record events
type (
	// CreatedHook is called after a record is created
	CreatedHook func(a astronauts.Astronaut)

	// UpdatedHook is called after a record is replaced or patched
	UpdatedHook func(old, updated astronauts.Astronaut)

	// DeletedHook is called after a record is deleted
	DeletedHook func(a astronauts.Astronaut)
)

// hooks manages event callbacks for store changes. Callbacks run
// synchronously on the mutating goroutine, after the store lock is released.
type hooks struct {
	mu        sync.RWMutex
	onCreated []CreatedHook
	onUpdated []UpdatedHook
	onDeleted []DeletedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnCreated registers a callback for when records are created
func (s *Store) OnCreated(fn CreatedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onCreated = append(s.hooks.onCreated, fn)
}

// OnUpdated registers a callback for when records are replaced or patched
func (s *Store) OnUpdated(fn UpdatedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onUpdated = append(s.hooks.onUpdated, fn)
}

// OnDeleted registers a callback for when records are deleted
func (s *Store) OnDeleted(fn DeletedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onDeleted = append(s.hooks.onDeleted, fn)
}

func (h *hooks) created(a astronauts.Astronaut) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onCreated {
		fn(a)
	}
}

func (h *hooks) updated(old, updated astronauts.Astronaut) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onUpdated {
		fn(old, updated)
	}
}

func (h *hooks) deleted(a astronauts.Astronaut) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onDeleted {
		fn(a)
	}
}
