package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/diane/internal/jobs"
)

// DefaultWorkerCount is the number of concurrent workers started by Start.
const DefaultWorkerCount = 5

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// Pending jobs are lost when the process exits.
type Queue struct {
	jobChan     chan *jobs.ExportJob
	closeChan   chan struct{}
	wg          sync.WaitGroup
	mu          sync.RWMutex
	store       jobs.JobStore
	closed      bool
	workerCount int
	backoff     time.Duration
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before Publish blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:     make(chan *jobs.ExportJob, bufferSize),
		closeChan:   make(chan struct{}),
		store:       store,
		workerCount: DefaultWorkerCount,
		backoff:     time.Second,
	}
}

// SetWorkerCount changes the number of workers started by Start.
func (q *Queue) SetWorkerCount(n int) {
	if n > 0 {
		q.workerCount = n
	}
}

// Publish implements the Publisher interface.
// It enqueues an export job, waiting for buffer space if the queue is full.
func (q *Queue) Publish(ctx context.Context, job *jobs.ExportJob) error {
	return q.enqueue(ctx, job, true)
}

// TryPublish implements the Publisher interface.
// It enqueues an export job only if the buffer has room. A job that does not
// fit is stored as failed and jobs.ErrQueueFull is returned.
func (q *Queue) TryPublish(ctx context.Context, job *jobs.ExportJob) error {
	return q.enqueue(ctx, job, false)
}

func (q *Queue) enqueue(ctx context.Context, job *jobs.ExportJob, wait bool) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return jobs.ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	if !wait {
		select {
		case q.jobChan <- job:
			return nil
		case <-q.closeChan:
			return jobs.ErrQueueClosed
		default:
			q.reject(ctx, job)
			return jobs.ErrQueueFull
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// reject records a job that was dropped because the buffer was full.
func (q *Queue) reject(ctx context.Context, job *jobs.ExportJob) {
	if q.store == nil {
		return
	}
	now := time.Now()
	job.Status = jobs.JobStatusFailed
	job.Error = jobs.ErrQueueFull.Error()
	job.CompletedAt = &now
	_ = q.store.SaveJob(ctx, job)
}

// Start implements the Consumer interface.
// It starts workerCount workers that process jobs with handler.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			q.drain(ctx, handler)
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// drain processes jobs still buffered when the queue is stopped.
func (q *Queue) drain(ctx context.Context, handler jobs.JobHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		default:
			return
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.ExportJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	retry := false
	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying
			retry = true
		} else {
			job.Status = jobs.JobStatusFailed
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	// This attempt's state is saved before any retry is scheduled.
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	if retry {
		// Linear backoff: 1x, 2x, 3x the base delay.
		backoff := time.Duration(job.RetryCount) * q.backoff
		next := *job
		time.AfterFunc(backoff, func() {
			next.Status = jobs.JobStatusPending
			next.StartedAt = nil
			next.CompletedAt = nil
			_ = q.Publish(ctx, &next)
		})
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits until in-flight and buffered jobs are done.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
