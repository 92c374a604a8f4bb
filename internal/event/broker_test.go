package event

import (
	"testing"
	"time"

	"github.com/cloudmesh/ledger/internal/domain"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe(4)
	defer cancel()

	b.Publish(domain.Event{Seq: 1, Kind: domain.EventJobCreated, Address: "a1"})

	select {
	case e := <-ch:
		if e.Kind != domain.EventJobCreated || e.Address != "a1" {
			t.Fatalf("got %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBroker_CancelStopsDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe(1)
	cancel()

	// Channel must be closed; publishing afterwards must not panic.
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}
	b.Publish(domain.Event{Seq: 1, Kind: domain.EventJobCreated})
	cancel()
}

func TestBroker_SlowSubscriberDropsNotBlocks(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(domain.Event{Seq: 1, Kind: domain.EventJobCreated})

	done := make(chan struct{})
	go func() {
		b.Publish(domain.Event{Seq: 2, Kind: domain.EventJobCompleted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	if e := <-ch; e.Seq != 1 {
		t.Fatalf("first buffered event seq = %d, want 1", e.Seq)
	}
}

func TestBroker_CloseClosesSubscribers(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after broker close")
	}
}
