package graph

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Store owns the in-memory graph. It is created empty and only ever changes
// through Replace.
//
// Current may be called from any goroutine. Replace calls are expected to
// come from one owner at a time; concurrent readers never observe a
// half-replaced graph because the swap is a single pointer store.
type Store struct {
	current atomic.Pointer[Graph]

	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(Graph)
}

// NewStore returns a store holding an empty graph.
func NewStore() *Store {
	s := &Store{}
	g := Empty()
	s.current.Store(&g)
	return s
}

// Current returns a snapshot of the present graph. The snapshot is a copy;
// changing it does not affect the store.
func (s *Store) Current() Graph {
	return s.current.Load().Clone()
}

// Replace swaps the entire graph and then notifies subscribers in
// registration order. The store keeps its own copy of g.
func (s *Store) Replace(g Graph) {
	next := g.Clone()
	s.current.Store(&next)

	s.mu.Lock()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next.Clone())
	}
}

// Subscribe registers fn to be called after every Replace. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Graph)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}
