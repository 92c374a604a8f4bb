package ledger

import (
	"time"

	"github.com/cloudmesh/ledger/internal/domain"
)

// Each transition is a pure function from the current committed record (nil
// when absent) and its inputs to the next record and the event the commit
// emits. On error both results are nil and nothing may be persisted. The
// store is responsible for evaluating a transition against the latest
// committed state and writing record and event atomically.

// CreateParams carries the caller-supplied inputs of the creation transition.
type CreateParams struct {
	Owner   domain.PublicKey
	Title   string
	CodeCid string
	JobType domain.JobType
}

// Create allocates a new job record at addr with status pending. The address
// and bump must come from DeriveJobAddress over (p.Owner, p.Title).
func Create(current *domain.Job, addr domain.Address, bump uint8, p CreateParams, now time.Time) (*domain.Job, *domain.Event, error) {
	if n := len(p.Title); n == 0 || n > domain.MaxTitleLen {
		return nil, nil, domain.ErrInvalidTitle
	}
	if n := len(p.CodeCid); n == 0 || n > domain.MaxCidLen {
		return nil, nil, domain.ErrInvalidCid
	}
	if current != nil {
		return nil, nil, domain.ErrAddressAlreadyInUse
	}

	job := &domain.Job{
		Address:   addr,
		Owner:     p.Owner,
		Title:     p.Title,
		CodeCid:   p.CodeCid,
		StartTime: now.Unix(),
		Status:    domain.JobStatusPending,
		JobType:   p.JobType,
		Bump:      bump,
	}
	event := &domain.Event{
		Kind:    domain.EventJobCreated,
		Address: addr,
		Payload: domain.JobCreated{Owner: p.Owner, Title: p.Title},
	}
	return job, event, nil
}

// Complete moves a pending job to completed, setting result CID, cost and end
// time together. Any authenticated caller may complete a pending job; the
// transition is deliberately not bound to an assigned worker.
func Complete(current *domain.Job, caller domain.PublicKey, resultCid string, cost uint64, now time.Time) (*domain.Job, *domain.Event, error) {
	if current == nil {
		return nil, nil, domain.ErrNotFound
	}
	if n := len(resultCid); n == 0 || n > domain.MaxCidLen {
		return nil, nil, domain.ErrInvalidCid
	}
	if cost == 0 {
		return nil, nil, domain.ErrInvalidCost
	}
	switch current.Status {
	case domain.JobStatusPending:
	case domain.JobStatusCompleted:
		return nil, nil, domain.ErrJobAlreadyCompleted
	case domain.JobStatusCancelled:
		return nil, nil, domain.ErrJobCancelled
	default:
		return nil, nil, domain.ErrInvalidStatusTransition
	}

	next := *current
	next.ResultCid = resultCid
	next.Cost = cost
	next.EndTime = now.Unix()
	next.Status = domain.JobStatusCompleted

	event := &domain.Event{
		Kind:    domain.EventJobCompleted,
		Address: next.Address,
		Payload: domain.JobCompleted{ResultCid: next.ResultCid, EndTime: next.EndTime, Cost: next.Cost},
	}
	return &next, event, nil
}

// Cancel moves a pending job to cancelled. Only the owner may cancel.
func Cancel(current *domain.Job, caller domain.PublicKey, now time.Time) (*domain.Job, *domain.Event, error) {
	if current == nil {
		return nil, nil, domain.ErrNotFound
	}
	if caller != current.Owner {
		return nil, nil, domain.ErrUnauthorized
	}
	switch current.Status {
	case domain.JobStatusPending:
	case domain.JobStatusCompleted:
		return nil, nil, domain.ErrJobAlreadyCompleted
	case domain.JobStatusCancelled:
		return nil, nil, domain.ErrJobAlreadyCancelled
	default:
		return nil, nil, domain.ErrInvalidStatusTransition
	}

	next := *current
	next.Status = domain.JobStatusCancelled
	next.EndTime = now.Unix()

	event := &domain.Event{
		Kind:    domain.EventJobCancelled,
		Address: next.Address,
		Payload: domain.JobCancelled{CancelledAt: next.EndTime},
	}
	return &next, event, nil
}

// MarkPayment records that the owner has paid the cost of a completed job.
// The flag moves false to true exactly once.
func MarkPayment(current *domain.Job, caller domain.PublicKey) (*domain.Job, *domain.Event, error) {
	if current == nil {
		return nil, nil, domain.ErrNotFound
	}
	if caller != current.Owner {
		return nil, nil, domain.ErrUnauthorized
	}
	if current.Status != domain.JobStatusCompleted {
		return nil, nil, domain.ErrInvalidStatusTransition
	}
	if current.CostPaid {
		return nil, nil, domain.ErrAlreadyPaid
	}

	next := *current
	next.CostPaid = true

	event := &domain.Event{
		Kind:    domain.EventPaymentMarked,
		Address: next.Address,
		Payload: domain.PaymentMarked{Amount: next.Cost},
	}
	return &next, event, nil
}
