package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a scan job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job tracks one asynchronous scan submitted over the API.
type Job struct {
	mu sync.Mutex

	ID      string
	Root    string
	Query   string
	Mode    string
	Workers int

	Status JobStatus
	Error  string

	CreatedAt time.Time
	UpdatedAt time.Time

	result *Snapshot
}

// NewJob returns a queued job with a fresh random ID.
func NewJob(root, query, mode string, workers int) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Root:      root,
		Query:     query,
		Mode:      mode,
		Workers:   workers,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// Fail marks the job failed with a reason.
func (j *Job) Fail(status JobStatus, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Error = reason
	j.UpdatedAt = time.Now()
}

// Complete stores the scan result and marks the job completed.
func (j *Job) Complete(snap Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &snap
	j.Status = StatusCompleted
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"scan_id"`
	Root      string    `json:"root"`
	Query     string    `json:"query"`
	Mode      string    `json:"mode"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Result    *Snapshot `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state. The scan result is
// only included once the job has completed.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		Root:      j.Root,
		Query:     j.Query,
		Mode:      j.Mode,
		Status:    j.Status,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		Result:    j.result,
	}
}
