package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/jobs"
)

// DefaultRetainedJobs is how many finished jobs a Store keeps for the status
// endpoints. Pending and running jobs are never evicted.
const DefaultRetainedJobs = 1000

// Store is an in-memory JobStore, safe for concurrent use. Stored jobs are
// copies; callers never share state with the queue.
type Store struct {
	mu       sync.RWMutex
	jobs     map[string]*jobs.ExportJob
	retained int
}

// NewStore creates an empty store keeping DefaultRetainedJobs finished jobs.
func NewStore() *Store {
	return &Store{
		jobs:     make(map[string]*jobs.ExportJob),
		retained: DefaultRetainedJobs,
	}
}

// SetRetention changes how many finished jobs are kept.
func (s *Store) SetRetention(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.retained = n
		s.evictLocked()
	}
}

// SaveJob stores a copy of job, replacing an earlier state with the same ID.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ExportJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *job
	s.jobs[job.JobID] = &saved
	if saved.Status.Finished() {
		s.evictLocked()
	}
	return nil
}

// evictLocked drops the oldest finished jobs beyond the retention limit.
func (s *Store) evictLocked() {
	var finished []*jobs.ExportJob
	for _, j := range s.jobs {
		if j.Status.Finished() {
			finished = append(finished, j)
		}
	}
	if len(finished) <= s.retained {
		return
	}

	sort.Slice(finished, func(i, k int) bool {
		return finishedAt(finished[i]).Before(finishedAt(finished[k]))
	})
	for _, j := range finished[:len(finished)-s.retained] {
		delete(s.jobs, j.JobID)
	}
}

func finishedAt(j *jobs.ExportJob) time.Time {
	if j.CompletedAt != nil {
		return *j.CompletedAt
	}
	return j.CreatedAt
}

// GetJob returns a copy of the job, or domain.ErrNotFound.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
	}
	found := *job
	return &found, nil
}

// ListJobs returns copies of the matching jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ExportJob, error) {
	s.mu.RLock()
	result := []*jobs.ExportJob{}
	for _, job := range s.jobs {
		if filter.Type != "" && job.Type != filter.Type {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		found := *job
		result = append(result, &found)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].JobID > result[j].JobID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset >= len(result) {
		return []*jobs.ExportJob{}, nil
	}
	result = result[max(filter.Offset, 0):]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)
