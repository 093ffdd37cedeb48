// Package jobs defines the export jobs that copy local records into
// external systems after a chat turn.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/diane/internal/domain"
)

// JobType names the export a job performs.
type JobType string

const (
	JobTypeMirrorPromptLog   JobType = "mirror_prompt_log"
	JobTypeMirrorTransaction JobType = "mirror_transaction"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Finished reports whether no further attempt will be made.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ExportJob copies one record into an external system. Exactly one payload
// is set, matching Type.
type ExportJob struct {
	JobID       string              `json:"job_id"`
	Type        JobType             `json:"type"`
	PromptLog   *domain.PromptLog   `json:"prompt_log,omitempty"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

var (
	// ErrQueueFull is returned by TryPublish when the buffer has no room.
	ErrQueueFull = errors.New("job queue is full")
	// ErrQueueClosed is returned once the queue has been stopped.
	ErrQueueClosed = errors.New("job queue is closed")
)

// Publisher enqueues export jobs.
type Publisher interface {
	// Publish waits for buffer space until ctx is done.
	Publish(ctx context.Context, job *ExportJob) error

	// TryPublish never waits; it returns ErrQueueFull instead.
	TryPublish(ctx context.Context, job *ExportJob) error

	Close() error
}

// Consumer runs a handler over published jobs.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler performs one attempt of a job. A returned error schedules a
// retry until MaxRetries is reached.
type JobHandler func(ctx context.Context, job *ExportJob) error

// JobStore keeps job state for the status endpoints.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExportJob) error
	GetJob(ctx context.Context, jobID string) (*ExportJob, error)

	// ListJobs returns jobs matching filter, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExportJob, error)
}

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	Type   JobType
	Status JobStatus
	Limit  int
	Offset int
}
