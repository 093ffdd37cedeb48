package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %s", jobID, want)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got atomic.Int64
	handler := jobs.Route(jobs.Handlers{
		PromptLog: func(_ context.Context, l domain.PromptLog) error {
			got.Store(l.ID)
			return nil
		},
	})
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Close()

	job := &jobs.ExportJob{Type: jobs.JobTypeMirrorPromptLog, PromptLog: &domain.PromptLog{ID: 42}}
	if err := q.Publish(ctx, job); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if job.JobID == "" {
		t.Fatal("Publish() did not assign a job ID")
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if got.Load() != 42 {
		t.Errorf("handler saw prompt log %d, want 42", got.Load())
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("timestamps not set: %+v", done)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = 5 * time.Millisecond
	q.SetWorkerCount(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	handler := func(context.Context, *jobs.ExportJob) error {
		if calls.Add(1) == 1 {
			return errors.New("notion unavailable")
		}
		return nil
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Close()

	job := &jobs.ExportJob{Type: jobs.JobTypeMirrorTransaction, Transaction: &domain.Transaction{ID: 1}}
	if err := q.Publish(ctx, job); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", done.RetryCount)
	}
	if calls.Load() != 2 {
		t.Errorf("handler called %d times, want 2", calls.Load())
	}
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	q.backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Start(ctx, func(context.Context, *jobs.ExportJob) error { return errors.New("boom") }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer q.Close()

	job := &jobs.ExportJob{Type: jobs.JobTypeMirrorPromptLog, PromptLog: &domain.PromptLog{}, MaxRetries: 2}
	if err := q.Publish(ctx, job); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 2 || failed.Error != "boom" {
		t.Errorf("failed job = %+v", failed)
	}
}

func TestQueue_StopDrainsBufferedJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	ctx := context.Background()

	var handled atomic.Int64
	handler := func(context.Context, *jobs.ExportJob) error {
		handled.Add(1)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := q.Publish(ctx, &jobs.ExportJob{Type: jobs.JobTypeMirrorTransaction, Transaction: &domain.Transaction{ID: int64(i + 1)}}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if handled.Load() != 3 {
		t.Errorf("handled %d jobs, want 3", handled.Load())
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := q.Publish(context.Background(), &jobs.ExportJob{}); err == nil {
		t.Error("Publish() after Close succeeded")
	}
	if err := q.Start(context.Background(), nil); err == nil {
		t.Error("Start() after Close succeeded")
	}
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.ExportJob{
		{JobID: "a", Type: jobs.JobTypeMirrorPromptLog, Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", Type: jobs.JobTypeMirrorTransaction, Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", Type: jobs.JobTypeMirrorPromptLog, Status: jobs.JobStatusPending, CreatedAt: base.Add(2 * time.Minute)},
	} {
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%d) error = %v", i, err)
		}
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(all) != 3 || all[0].JobID != "c" || all[2].JobID != "a" {
		t.Errorf("ListJobs() order = %v", ids(all))
	}

	prompt, _ := s.ListJobs(ctx, jobs.JobFilter{Type: jobs.JobTypeMirrorPromptLog, Limit: 1})
	if len(prompt) != 1 || prompt[0].JobID != "c" {
		t.Errorf("filtered = %v", ids(prompt))
	}

	paged, _ := s.ListJobs(ctx, jobs.JobFilter{Offset: 5})
	if len(paged) != 0 {
		t.Errorf("offset past end = %v", ids(paged))
	}

	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetJob(missing) error = %v, want ErrNotFound", err)
	}
}

func ids(js []*jobs.ExportJob) []string {
	out := make([]string, len(js))
	for i, j := range js {
		out[i] = j.JobID
	}
	return out
}

func TestStore_RetainsNewestFinishedJobs(t *testing.T) {
	s := NewStore()
	s.SetRetention(2)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	pending := &jobs.ExportJob{JobID: "pending", Status: jobs.JobStatusPending, CreatedAt: base}
	if err := s.SaveJob(ctx, pending); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}
	for i, id := range []string{"old", "mid", "new"} {
		done := base.Add(time.Duration(i+1) * time.Minute)
		job := &jobs.ExportJob{JobID: id, Status: jobs.JobStatusCompleted, CreatedAt: base, CompletedAt: &done}
		if err := s.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", id, err)
		}
	}

	if _, err := s.GetJob(ctx, "old"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("oldest finished job should be evicted, got err = %v", err)
	}
	for _, id := range []string{"pending", "mid", "new"} {
		if _, err := s.GetJob(ctx, id); err != nil {
			t.Errorf("GetJob(%s) error = %v", id, err)
		}
	}
}

func TestQueue_TryPublishRejectsWhenFull(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, store)
	ctx := context.Background()
	defer q.Close()

	first := &jobs.ExportJob{Type: jobs.JobTypeMirrorPromptLog, PromptLog: &domain.PromptLog{ID: 1}}
	if err := q.TryPublish(ctx, first); err != nil {
		t.Fatalf("TryPublish(first) error = %v", err)
	}

	second := &jobs.ExportJob{Type: jobs.JobTypeMirrorPromptLog, PromptLog: &domain.PromptLog{ID: 2}}
	if err := q.TryPublish(ctx, second); !errors.Is(err, jobs.ErrQueueFull) {
		t.Fatalf("TryPublish(second) error = %v, want ErrQueueFull", err)
	}

	rejected, err := store.GetJob(ctx, second.JobID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if rejected.Status != jobs.JobStatusFailed || rejected.Error != jobs.ErrQueueFull.Error() || rejected.CompletedAt == nil {
		t.Errorf("rejected job = %+v", rejected)
	}

	queued, _ := store.GetJob(ctx, first.JobID)
	if queued.Status != jobs.JobStatusPending {
		t.Errorf("queued job status = %s, want pending", queued.Status)
	}
}

func TestMirror_StalledExportDoesNotBlockCaller(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, store)
	q.SetWorkerCount(1)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	handler := func(context.Context, *jobs.ExportJob) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mirror := jobs.NewMirror(q, zerolog.Nop(), true, true)
	reqCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	mirror.MirrorPromptLog(reqCtx, domain.PromptLog{ID: 1})
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first job")
	}

	done := make(chan struct{})
	go func() {
		for i := int64(2); i <= 4; i++ {
			mirror.MirrorPromptLog(reqCtx, domain.PromptLog{ID: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		close(release)
		t.Fatal("MirrorPromptLog blocked on a full queue")
	}

	close(release)
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	failed, err := store.ListJobs(context.Background(), jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(failed) != 2 {
		t.Errorf("rejected jobs = %d, want 2", len(failed))
	}
	completed, _ := store.ListJobs(context.Background(), jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if len(completed) != 2 {
		t.Errorf("completed jobs = %d, want 2", len(completed))
	}
}
