// Package store holds the authoritative in-memory astronaut collection and
// the access layer that reads and mutates it.
//
// A Store is an explicitly owned value: the application creates one, seeds
// it, and injects it into the HTTP server. All operations are serialized
// through a single RWMutex so a read-modify-write never interleaves with
// another mutation. Values returned to callers are deep copies.
package store

import (
	"sync"

	"github.com/agentstation/astronauts/pkg/astronauts"
	"github.com/agentstation/astronauts/pkg/errors"
)

// Store is a concurrent safe, insertion-ordered collection of astronauts.
type Store struct {
	mu       sync.RWMutex
	records  []astronauts.Astronaut
	revision uint64

	hooks *hooks
}

// Option configures a Store.
type Option func(*Store) error

// WithSeed appends records in order. Duplicate or invalid records fail New.
func WithSeed(records []astronauts.Astronaut) Option {
	return func(s *Store) error {
		for _, r := range records {
			if err := r.Validate(); err != nil {
				return err
			}
			if s.indexOf(r.ID) >= 0 {
				return errors.NewAlreadyExistsError(astronauts.Resource, r.ID)
			}
			s.records = append(s.records, r.Clone())
		}
		return nil
	}
}

// WithCapacity preallocates room for n records.
func WithCapacity(n int) Option {
	return func(s *Store) error {
		if n > cap(s.records) {
			grown := make([]astronauts.Astronaut, len(s.records), n)
			copy(grown, s.records)
			s.records = grown
		}
		return nil
	}
}

// New creates a store. Seeding does not fire hooks or bump the revision.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		records: make([]astronauts.Astronaut, 0),
		hooks:   newHooks(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.WrapResource("seed", "store", "", err)
		}
	}

	return s, nil
}

// NewFromFixtures creates a store seeded with the embedded fixture set.
func NewFromFixtures() (*Store, error) {
	records, err := astronauts.Fixtures()
	if err != nil {
		return nil, errors.WrapResource("load", "fixtures", "", err)
	}
	return New(WithCapacity(len(records)), WithSeed(records))
}

// List returns every record in insertion order.
func (s *Store) List() []astronauts.Astronaut {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]astronauts.Astronaut, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns the record with id. The bool is false when no record matches.
func (s *Store) Get(id string) (astronauts.Astronaut, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return astronauts.Astronaut{}, false
	}
	return s.records[i].Clone(), true
}

// Create appends a and returns the stored record. It fails with a
// ValidationError for a malformed record and an AlreadyExistsError when the
// id is taken.
func (s *Store) Create(a astronauts.Astronaut) (astronauts.Astronaut, error) {
	if err := a.Validate(); err != nil {
		return astronauts.Astronaut{}, err
	}
	a = a.Clone()

	s.mu.Lock()
	if s.indexOf(a.ID) >= 0 {
		s.mu.Unlock()
		return astronauts.Astronaut{}, errors.NewAlreadyExistsError(astronauts.Resource, a.ID)
	}
	s.records = append(s.records, a)
	s.revision++
	s.mu.Unlock()

	s.hooks.created(a.Clone())
	return a.Clone(), nil
}

// Replace overwrites every field of the record with id. The stored id is
// always id, whatever a.ID holds.
func (s *Store) Replace(id string, a astronauts.Astronaut) (astronauts.Astronaut, bool) {
	a = a.Clone()
	a.ID = id

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return astronauts.Astronaut{}, false
	}
	old := s.records[i]
	s.records[i] = a
	s.revision++
	s.mu.Unlock()

	s.hooks.updated(old, a.Clone())
	return a.Clone(), true
}

// Update merges the non-nil fields of p into the record with id. An empty
// patch is not a mutation.
func (s *Store) Update(id string, p astronauts.Patch) (astronauts.Astronaut, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return astronauts.Astronaut{}, false
	}
	old := s.records[i]
	if p.IsEmpty() {
		s.mu.Unlock()
		return old.Clone(), true
	}
	updated := p.Apply(old.Clone())
	s.records[i] = updated
	s.revision++
	s.mu.Unlock()

	s.hooks.updated(old, updated.Clone())
	return updated.Clone(), true
}

// Delete removes the record with id and returns it.
func (s *Store) Delete(id string) (astronauts.Astronaut, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return astronauts.Astronaut{}, false
	}
	removed := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.revision++
	s.mu.Unlock()

	s.hooks.deleted(removed.Clone())
	return removed, true
}

// SearchByName returns, in insertion order, the records whose first or last
// name contains query, ignoring case. No match yields an empty slice.
func (s *Store) SearchByName(query string) []astronauts.Astronaut {
	folded := astronauts.Fold(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]astronauts.Astronaut, 0)
	for _, r := range s.records {
		if r.MatchesName(folded) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Revision increases by one on every successful mutation. Callers use it to
// key derived data such as cached responses.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
