package domain

import "fmt"

// Limits on variable-length Job fields, in bytes.
const (
	MaxTitleLen = 100
	MaxCidLen   = 100
)

// Address is the deterministic identifier of a Job record, derived from the
// owner identity and the title.
type Address string

func (a Address) String() string { return string(a) }

// JobStatus represents the lifecycle state of a job. Transitions are one-way:
// pending may move to completed or cancelled, both of which are terminal.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType classifies how a job is triggered. Informational only; it does not
// alter transition rules.
type JobType string

const (
	JobTypeCron   JobType = "cron"
	JobTypeApi    JobType = "api"
	JobTypeManual JobType = "manual"
)

// ParseJobType validates a job type received from a client.
func ParseJobType(s string) (JobType, error) {
	switch JobType(s) {
	case JobTypeCron, JobTypeApi, JobTypeManual:
		return JobType(s), nil
	}
	return "", fmt.Errorf("%w: unknown job type %q", ErrInvalidInput, s)
}

// Job is the sole persisted entity of the ledger. Owner, title, code CID, job
// type and bump are immutable after creation; result CID, end time, cost and
// the paid flag are written exactly once by their respective transitions.
type Job struct {
	Address   Address   `json:"address" db:"address"`
	Owner     PublicKey `json:"owner" db:"owner"`
	Title     string    `json:"title" db:"title"`
	CodeCid   string    `json:"code_cid" db:"code_cid"`
	ResultCid string    `json:"result_cid" db:"result_cid"`
	StartTime int64     `json:"start_time" db:"start_time"`
	EndTime   int64     `json:"end_time" db:"end_time"`
	Status    JobStatus `json:"status" db:"status"`
	JobType   JobType   `json:"job_type" db:"job_type"`
	Cost      uint64    `json:"cost" db:"cost"`
	CostPaid  bool      `json:"cost_paid" db:"cost_paid"`
	Bump      uint8     `json:"bump" db:"bump"`
}

// Terminal reports whether the job has left the pending state.
func (j Job) Terminal() bool {
	return j.Status != JobStatusPending
}
