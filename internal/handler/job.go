package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudmesh/ledger/internal/domain"
	"github.com/cloudmesh/ledger/internal/service"
)

// JobHandler handles job ledger endpoints.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Title and code CID lengths are enforced by the ledger core so the error
// messages stay uniform; the validator only gates the job type here.
type createJobRequest struct {
	Title   string `json:"title"`
	CodeCid string `json:"code_cid"`
	JobType string `json:"job_type" validate:"required,oneof=cron api manual"`
}

// Create allocates a new pending job owned by the caller.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(r.Context())
	if !ok {
		WriteError(w, domain.ErrUnauthenticated)
		return
	}

	var body createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}
	if err := validateStruct(body); err != nil {
		WriteError(w, err)
		return
	}

	jobType, err := domain.ParseJobType(body.JobType)
	if err != nil {
		WriteError(w, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), caller, body.Title, body.CodeCid, jobType)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

type completeJobRequest struct {
	ResultCid string `json:"result_cid"`
	Cost      uint64 `json:"cost"`
}

// Complete records a result for a pending job. Open to any authenticated
// caller.
func (h *JobHandler) Complete(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(r.Context())
	if !ok {
		WriteError(w, domain.ErrUnauthenticated)
		return
	}

	var body completeJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	addr := domain.Address(chi.URLParam(r, "address"))
	job, err := h.jobs.Complete(r.Context(), caller, addr, body.ResultCid, body.Cost)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Cancel cancels a pending job. Owner only.
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(r.Context())
	if !ok {
		WriteError(w, domain.ErrUnauthenticated)
		return
	}

	addr := domain.Address(chi.URLParam(r, "address"))
	job, err := h.jobs.Cancel(r.Context(), caller, addr)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// MarkPayment marks a completed job as paid. Owner only.
func (h *JobHandler) MarkPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := Caller(r.Context())
	if !ok {
		WriteError(w, domain.ErrUnauthenticated)
		return
	}

	addr := domain.Address(chi.URLParam(r, "address"))
	job, err := h.jobs.MarkPayment(r.Context(), caller, addr)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// List returns jobs in presentation order, optionally filtered by owner.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		owner, err := domain.ParsePublicKey(ownerParam)
		if err != nil {
			WriteError(w, err)
			return
		}
		jobs, err := h.jobs.ListByOwner(r.Context(), owner)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, jobs)
		return
	}

	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// Get returns a single job by address.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	addr := domain.Address(chi.URLParam(r, "address"))
	job, err := h.jobs.Fetch(r.Context(), addr)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
