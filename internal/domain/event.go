package domain

import "time"

// EventKind identifies which transition produced an event.
type EventKind string

const (
	EventJobCreated    EventKind = "job_created"
	EventJobCompleted  EventKind = "job_completed"
	EventJobCancelled  EventKind = "job_cancelled"
	EventPaymentMarked EventKind = "payment_marked"
)

// Event is one entry of the append-only transition log. Exactly one event is
// appended per accepted transition; rejected transitions append nothing. Seq
// is assigned by the store at commit time and reflects total commit order.
type Event struct {
	Seq       int64     `json:"seq,omitempty"`
	Kind      EventKind `json:"kind"`
	Address   Address   `json:"address"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at,omitzero"`
}

// JobCreated is the payload emitted by the creation transition.
type JobCreated struct {
	Owner PublicKey `json:"owner"`
	Title string    `json:"title"`
}

// JobCompleted is the payload emitted by the completion transition.
type JobCompleted struct {
	ResultCid string `json:"result_cid"`
	EndTime   int64  `json:"end_time"`
	Cost      uint64 `json:"cost"`
}

// JobCancelled is the payload emitted by the cancellation transition.
type JobCancelled struct {
	CancelledAt int64 `json:"cancelled_at"`
}

// PaymentMarked is the payload emitted when the owner marks a completed job
// as paid.
type PaymentMarked struct {
	Amount uint64 `json:"amount"`
}
