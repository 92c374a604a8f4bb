package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/cloudmesh/ledger/internal/domain"
	"github.com/cloudmesh/ledger/internal/store"
)

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(e domain.Event) {
	p.events = append(p.events, e)
}

func testKey(t *testing.T) domain.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return domain.PublicKey(base58.Encode(pub))
}

func newTestJobService() (*JobService, *store.MemoryStore, *recordingPublisher) {
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewJobService(st, pub)

	clock := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, st, pub
}

func TestJobService_Lifecycle(t *testing.T) {
	svc, _, pub := newTestJobService()
	ctx := context.Background()
	owner := testKey(t)
	worker := testKey(t)

	job, err := svc.Create(ctx, owner, "t1", "Qm1", domain.JobTypeManual)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != domain.JobStatusPending || job.Cost != 0 {
		t.Fatalf("created job = %+v", job)
	}

	completed, err := svc.Complete(ctx, worker, job.Address, "Qm2", 1000)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.JobStatusCompleted || completed.ResultCid != "Qm2" || completed.Cost != 1000 {
		t.Fatalf("completed job = %+v", completed)
	}
	if completed.EndTime < completed.StartTime {
		t.Fatalf("end time %d before start time %d", completed.EndTime, completed.StartTime)
	}

	paid, err := svc.MarkPayment(ctx, owner, job.Address)
	if err != nil {
		t.Fatalf("mark payment: %v", err)
	}
	if !paid.CostPaid {
		t.Fatal("cost not marked paid")
	}

	if len(pub.events) != 3 {
		t.Fatalf("published %d events, want 3", len(pub.events))
	}
	wantKinds := []domain.EventKind{domain.EventJobCreated, domain.EventJobCompleted, domain.EventPaymentMarked}
	for i, kind := range wantKinds {
		if pub.events[i].Kind != kind {
			t.Fatalf("event %d kind = %s, want %s", i, pub.events[i].Kind, kind)
		}
		if pub.events[i].Address != job.Address {
			t.Fatalf("event %d address = %s", i, pub.events[i].Address)
		}
	}

	payment, ok := pub.events[2].Payload.(domain.PaymentMarked)
	if !ok || payment.Amount != 1000 {
		t.Fatalf("payment payload = %+v", pub.events[2].Payload)
	}
}

func TestJobService_DuplicateCreate(t *testing.T) {
	svc, _, pub := newTestJobService()
	ctx := context.Background()
	owner := testKey(t)

	if _, err := svc.Create(ctx, owner, "t1", "Qm1", domain.JobTypeManual); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, owner, "t1", "Qm9", domain.JobTypeCron); !errors.Is(err, domain.ErrAddressAlreadyInUse) {
		t.Fatalf("err = %v, want ErrAddressAlreadyInUse", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("rejected create published an event, log = %+v", pub.events)
	}
}

func TestJobService_CancelThenComplete(t *testing.T) {
	svc, _, _ := newTestJobService()
	ctx := context.Background()
	owner := testKey(t)
	worker := testKey(t)

	job, err := svc.Create(ctx, owner, "t1", "Qm1", domain.JobTypeApi)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Cancel(ctx, owner, job.Address); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Complete(ctx, worker, job.Address, "Qm2", 1000); !errors.Is(err, domain.ErrJobCancelled) {
		t.Fatalf("err = %v, want ErrJobCancelled", err)
	}
}

func TestJobService_UnauthorizedCancelLeavesJobUntouched(t *testing.T) {
	svc, st, pub := newTestJobService()
	ctx := context.Background()
	owner := testKey(t)
	other := testKey(t)

	job, err := svc.Create(ctx, owner, "t1", "Qm1", domain.JobTypeManual)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Cancel(ctx, other, job.Address); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	stored, err := st.Get(ctx, job.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.JobStatusPending || stored.EndTime != 0 {
		t.Fatalf("job mutated by rejected cancel: %+v", stored)
	}
	if len(pub.events) != 1 {
		t.Fatalf("rejected cancel published an event")
	}
}

func TestJobService_RepeatPayment(t *testing.T) {
	svc, _, _ := newTestJobService()
	ctx := context.Background()
	owner := testKey(t)
	worker := testKey(t)

	job, err := svc.Create(ctx, owner, "t1", "Qm1", domain.JobTypeManual)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Complete(ctx, worker, job.Address, "Qm2", 500); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.MarkPayment(ctx, owner, job.Address); err != nil {
		t.Fatalf("mark payment: %v", err)
	}
	if _, err := svc.MarkPayment(ctx, owner, job.Address); !errors.Is(err, domain.ErrAlreadyPaid) {
		t.Fatalf("err = %v, want ErrAlreadyPaid", err)
	}
}

func TestJobService_ListOrdering(t *testing.T) {
	svc, _, _ := newTestJobService()
	ctx := context.Background()
	owner := testKey(t)
	worker := testKey(t)

	// Created in order; the fake clock advances one second per operation.
	first, err := svc.Create(ctx, owner, "first", "Qm1", domain.JobTypeManual)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, owner, "second", "Qm1", domain.JobTypeManual)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	third, err := svc.Create(ctx, owner, "third", "Qm1", domain.JobTypeManual)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Complete(ctx, worker, second.Address, "Qm2", 100); err != nil {
		t.Fatalf("complete: %v", err)
	}

	jobs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("listed %d jobs", len(jobs))
	}

	// Pending first, newest first within the partition, completed last.
	want := []domain.Address{third.Address, first.Address, second.Address}
	for i, addr := range want {
		if jobs[i].Address != addr {
			t.Fatalf("position %d = %s, want %s", i, jobs[i].Address, addr)
		}
	}
}

func TestJobService_ListByOwner(t *testing.T) {
	svc, _, _ := newTestJobService()
	ctx := context.Background()
	ownerA := testKey(t)
	ownerB := testKey(t)

	if _, err := svc.Create(ctx, ownerA, "a job", "Qm1", domain.JobTypeManual); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, ownerB, "b job", "Qm1", domain.JobTypeManual); err != nil {
		t.Fatalf("create: %v", err)
	}

	jobs, err := svc.ListByOwner(ctx, ownerA)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Owner != ownerA {
		t.Fatalf("list by owner = %+v", jobs)
	}
}

func TestJobService_FetchAbsent(t *testing.T) {
	svc, _, _ := newTestJobService()

	if _, err := svc.Fetch(context.Background(), "no-such-address"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
