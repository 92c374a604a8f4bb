package service

import (
	"context"
	"sort"
	"time"

	"github.com/cloudmesh/ledger/internal/domain"
	"github.com/cloudmesh/ledger/internal/ledger"
	"github.com/cloudmesh/ledger/internal/store"
)

// JobStore defines the persistence interface consumed by JobService.
type JobStore interface {
	Apply(ctx context.Context, addr domain.Address, fn store.ApplyFunc) (*domain.Event, error)
	Get(ctx context.Context, addr domain.Address) (*domain.Job, error)
	ListAll(ctx context.Context) ([]domain.Job, error)
	ListByOwner(ctx context.Context, owner domain.PublicKey) ([]domain.Job, error)
}

// Publisher receives each committed event.
type Publisher interface {
	Publish(domain.Event)
}

// JobService orchestrates ledger transitions against the store and publishes
// the resulting events.
type JobService struct {
	store  JobStore
	events Publisher
	now    func() time.Time
}

// NewJobService creates a new JobService.
func NewJobService(store JobStore, events Publisher) *JobService {
	return &JobService{
		store:  store,
		events: events,
		now:    time.Now,
	}
}

// Create allocates a new pending job at the address derived from
// (owner, title) and returns it.
func (s *JobService) Create(ctx context.Context, owner domain.PublicKey, title, codeCid string, jobType domain.JobType) (*domain.Job, error) {
	addr, bump, err := ledger.DeriveJobAddress(owner, title)
	if err != nil {
		return nil, err
	}

	params := ledger.CreateParams{
		Owner:   owner,
		Title:   title,
		CodeCid: codeCid,
		JobType: jobType,
	}

	var created *domain.Job
	event, err := s.store.Apply(ctx, addr, func(current *domain.Job) (*domain.Job, *domain.Event, error) {
		next, ev, err := ledger.Create(current, addr, bump, params, s.now())
		created = next
		return next, ev, err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(*event)
	return created, nil
}

// Complete moves a pending job to completed, recording the result CID and
// cost. The caller may be any authenticated identity.
func (s *JobService) Complete(ctx context.Context, caller domain.PublicKey, addr domain.Address, resultCid string, cost uint64) (*domain.Job, error) {
	return s.transition(ctx, addr, func(current *domain.Job) (*domain.Job, *domain.Event, error) {
		return ledger.Complete(current, caller, resultCid, cost, s.now())
	})
}

// Cancel moves a pending job to cancelled. Only the owner may cancel.
func (s *JobService) Cancel(ctx context.Context, caller domain.PublicKey, addr domain.Address) (*domain.Job, error) {
	return s.transition(ctx, addr, func(current *domain.Job) (*domain.Job, *domain.Event, error) {
		return ledger.Cancel(current, caller, s.now())
	})
}

// MarkPayment marks a completed job as paid. Only the owner may pay.
func (s *JobService) MarkPayment(ctx context.Context, caller domain.PublicKey, addr domain.Address) (*domain.Job, error) {
	return s.transition(ctx, addr, func(current *domain.Job) (*domain.Job, *domain.Event, error) {
		return ledger.MarkPayment(current, caller)
	})
}

func (s *JobService) transition(ctx context.Context, addr domain.Address, fn store.ApplyFunc) (*domain.Job, error) {
	var updated *domain.Job
	event, err := s.store.Apply(ctx, addr, func(current *domain.Job) (*domain.Job, *domain.Event, error) {
		next, ev, err := fn(current)
		updated = next
		return next, ev, err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(*event)
	return updated, nil
}

// List returns all jobs in presentation order: pending jobs first, then
// within each partition newest first, insertion order breaking ties.
func (s *JobService) List(ctx context.Context) ([]domain.Job, error) {
	jobs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sortJobs(jobs)
	return jobs, nil
}

// ListByOwner returns the owner's jobs in presentation order.
func (s *JobService) ListByOwner(ctx context.Context, owner domain.PublicKey) ([]domain.Job, error) {
	jobs, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	sortJobs(jobs)
	return jobs, nil
}

// Fetch retrieves a single job by address.
func (s *JobService) Fetch(ctx context.Context, addr domain.Address) (*domain.Job, error) {
	return s.store.Get(ctx, addr)
}

func sortJobs(jobs []domain.Job) {
	// Stable keeps store insertion order for equal keys.
	sort.SliceStable(jobs, func(i, j int) bool {
		iPending := jobs[i].Status == domain.JobStatusPending
		jPending := jobs[j].Status == domain.JobStatusPending
		if iPending != jPending {
			return iPending
		}
		return jobs[i].StartTime > jobs[j].StartTime
	})
}
