package store

import (
	"context"
	"sync"
	"time"

	"github.com/cloudmesh/ledger/internal/domain"
)

// MemoryStore is an in-memory job store with the same per-address
// serialization guarantees as the postgres store. Transitions run under the
// store mutex, so a rejected transition can never observe or leave partial
// state.
type MemoryStore struct {
	mu     sync.Mutex
	jobs   map[domain.Address]domain.Job
	order  []domain.Address
	events []domain.Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[domain.Address]domain.Job),
	}
}

// Apply runs fn against the current record at addr and commits the returned
// record and event atomically.
func (s *MemoryStore) Apply(_ context.Context, addr domain.Address, fn ApplyFunc) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *domain.Job
	if job, ok := s.jobs[addr]; ok {
		current = &job
	}

	next, event, err := fn(current)
	if err != nil {
		return nil, err
	}

	if current == nil {
		s.order = append(s.order, addr)
	}
	s.jobs[addr] = *next

	event.Seq = int64(len(s.events) + 1)
	event.EmittedAt = time.Now()
	s.events = append(s.events, *event)
	return event, nil
}

// Get retrieves the job at addr.
func (s *MemoryStore) Get(_ context.Context, addr domain.Address) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[addr]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// ListAll returns every job in insertion order.
func (s *MemoryStore) ListAll(_ context.Context) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]domain.Job, 0, len(s.order))
	for _, addr := range s.order {
		jobs = append(jobs, s.jobs[addr])
	}
	return jobs, nil
}

// ListByOwner returns the owner's jobs in insertion order.
func (s *MemoryStore) ListByOwner(_ context.Context, owner domain.PublicKey) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []domain.Job
	for _, addr := range s.order {
		if job := s.jobs[addr]; job.Owner == owner {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// Events returns a copy of the append-only event log.
func (s *MemoryStore) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}
