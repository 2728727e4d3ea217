package mcp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a target run
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Job represents a background run over one configured target
type Job struct {
	ID           string    `json:"id"`
	Target       string    `json:"target"`
	Status       JobStatus `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
	Check        bool      `json:"check"`
	Incremental  bool      `json:"incremental"`
	Updated      int       `json:"updated"`
	Unchanged    int       `json:"unchanged"`
	Skipped      int       `json:"skipped"`
	Stale        int       `json:"stale"`
	Failed       int       `json:"failed"`
	ErrorMessage string    `json:"error_message,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

// JobManager manages background target runs. At most one run per target is active.
type JobManager struct {
	jobs     map[string]*Job
	mu       sync.RWMutex
	byTarget map[string]string // target -> jobID for active jobs
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:     make(map[string]*Job),
		byTarget: make(map[string]string),
	}
}

// CreateJob creates a job for a target, or returns the target's active job.
// The second return value reports whether a new job was created.
func (m *JobManager) CreateJob(target string, check, incremental bool) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, exists := m.byTarget[target]; exists {
		if existing := m.jobs[id]; existing != nil && !existing.Status.done() {
			return *existing, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:          uuid.New().String(),
		Target:      target,
		Status:      JobStatusPending,
		StartedAt:   time.Now(),
		Check:       check,
		Incremental: incremental,
		ctx:         ctx,
		cancel:      cancel,
	}
	m.jobs[job.ID] = job
	m.byTarget[target] = job.ID
	return *job, true
}

// GetJob returns a snapshot of a job
func (m *JobManager) GetJob(jobID string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// IsRunning checks if a job is currently active for a target
func (m *JobManager) IsRunning(target string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, exists := m.byTarget[target]; exists {
		job := m.jobs[id]
		return job != nil && !job.Status.done()
	}
	return false
}

// UpdateStatus updates the status of a job. Finished jobs are not updated again.
func (m *JobManager) UpdateStatus(jobID string, status JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status.done() {
		return
	}
	job.Status = status
	if status.done() {
		job.CompletedAt = time.Now()
		job.cancel()
		delete(m.byTarget, job.Target)
	}
	if errorMsg != "" {
		job.ErrorMessage = errorMsg
	}
}

// UpdateCounts records the per-status file counts of a job
func (m *JobManager) UpdateCounts(jobID string, updated, unchanged, skipped, stale, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, exists := m.jobs[jobID]; exists {
		job.Updated = updated
		job.Unchanged = unchanged
		job.Skipped = skipped
		job.Stale = stale
		job.Failed = failed
	}
}

// CancelJob cancels an active job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status.done() {
		return false
	}
	job.cancel()
	job.Status = JobStatusCancelled
	job.CompletedAt = time.Now()
	delete(m.byTarget, job.Target)
	return true
}

// CancelAll cancels all active jobs
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if !job.Status.done() {
			job.cancel()
			job.Status = JobStatusCancelled
			job.CompletedAt = time.Now()
		}
	}
	m.byTarget = make(map[string]string)
}

// ListJobs returns snapshots of all jobs, oldest first
func (m *JobManager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.Before(jobs[j].StartedAt) })
	return jobs
}

// GetContext returns the context a job runs under
func (m *JobManager) GetContext(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job, exists := m.jobs[jobID]; exists {
		return job.ctx
	}
	return context.Background()
}
