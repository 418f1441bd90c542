package state

import (
	"maps"
	"slices"
	"sync"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// Listener is called after every dispatch with the resulting state.
type Listener func(domain.SessionState)

// Store is the only mutator of the observable session state.
//
// The mutex only keeps readers from observing a torn state. It does not
// serialize whole auth actions; overlapping actions are the caller's problem.
type Store struct {
	mu        sync.RWMutex
	state     domain.SessionState
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store holding Initial().
func NewStore() *Store {
	return &Store{state: Initial(), listeners: make(map[int]Listener)}
}

// Dispatch applies a to the current state and notifies listeners in
// subscription order.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next.Clone())
	}
}

// State returns a copy of the current state.
func (s *Store) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
