// Package http provides the HTTP API for submitting and polling debate jobs.
package http

import (
	"net/http"
	"strconv"

	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/port/messagequeue"
	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	jobs     *service.JobService
	breakers map[string]*resilience.Breaker
	queue    messagequeue.Queue // optional
}

// NewHandlers creates the handler set. breakers maps a provider name to its
// circuit breaker for the health report; it may be nil.
func NewHandlers(jobs *service.JobService, breakers map[string]*resilience.Breaker) *Handlers {
	return &Handlers{jobs: jobs, breakers: breakers}
}

// SetQueue attaches the message queue so health can report its state.
func (h *Handlers) SetQueue(q messagequeue.Queue) { h.queue = q }

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitDebate starts a new debate job from the posted document.
func (h *Handlers) SubmitDebate(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[debate.SubmitRequest](w, r)
	if !ok {
		return
	}

	job, err := h.jobs.Submit(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Debatte gestartet",
	})
}

// GetDebate returns the current state of a debate job.
func (h *Handlers) GetDebate(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "debate job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ListDebates returns recent debate jobs, newest first. The optional limit
// query parameter caps the result.
func (h *Handlers) ListDebates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	jobs, err := h.jobs.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err, "list debate jobs")
		return
	}
	if jobs == nil {
		jobs = []debate.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

type healthResponse struct {
	Status        string            `json:"status"`
	Breakers      map[string]string `json:"breakers,omitempty"`
	NATSConnected *bool             `json:"nats_connected,omitempty"`
}

// Health reports service liveness, breaker states and queue connectivity.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}

	if len(h.breakers) > 0 {
		resp.Breakers = make(map[string]string, len(h.breakers))
		for name, b := range h.breakers {
			resp.Breakers[name] = b.State()
		}
	}
	if h.queue != nil {
		connected := h.queue.IsConnected()
		resp.NATSConnected = &connected
	}

	writeJSON(w, http.StatusOK, resp)
}
