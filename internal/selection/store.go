package selection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store persists selection states between requests for the lifetime of a
// visit. Update applies fn atomically with respect to other updates of the
// same session; if fn fails nothing is saved.
type Store interface {
	Create(ctx context.Context, st State) (State, error)
	Get(ctx context.Context, id string) (State, error)
	Update(ctx context.Context, id string, fn func(*State) error) (State, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	states map[string]State
	ttl    time.Duration
	now    func() time.Time
	mu     sync.RWMutex
}

// NewMemoryStore creates an in-memory store. Sessions idle for longer than
// ttl are dropped; zero keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		states: make(map[string]State),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, st State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	st.ID = uuid.NewString()
	st.UpdatedAt = s.now()
	s.states[st.ID] = cloneState(st)
	return st, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[id]
	if !ok || s.expired(st) {
		return State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return cloneState(st), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[id]
	if !ok || s.expired(st) {
		return State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	next := cloneState(st)
	if err := fn(&next); err != nil {
		return State{}, err
	}
	next.ID = id
	next.UpdatedAt = s.now()
	s.states[id] = cloneState(next)
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.states, id)
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.states {
		if !s.expired(st) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(st State) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}

func (s *MemoryStore) sweepLocked() {
	for id, st := range s.states {
		if s.expired(st) {
			delete(s.states, id)
		}
	}
}

// cloneState copies the slices and pointers of st so callers cannot mutate
// stored state.
func cloneState(st State) State {
	out := st
	out.Log = slices.Clone(st.Log)
	if st.Last != nil {
		last := *st.Last
		last.Buckets.High = slices.Clone(st.Last.Buckets.High)
		last.Buckets.Moderate = slices.Clone(st.Last.Buckets.Moderate)
		last.Buckets.Low = slices.Clone(st.Last.Buckets.Low)
		out.Last = &last
	}
	return out
}
