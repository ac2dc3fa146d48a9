package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MacroPipe/internal/domain/models"
	"MacroPipe/internal/repository"
	"MacroPipe/pkg/queue"
)

type fakeInvoker struct {
	mu     sync.Mutex
	calls  [][]string
	output interface{}
	err    error
}

func (f *fakeInvoker) Invoke(_ context.Context, capability string, argv []string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{capability}, argv...))
	return f.output, f.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []JobEvent
}

func (r *recordingNotifier) NotifyJobEvent(_ context.Context, ev JobEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) statuses() []models.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.JobStatus, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Status)
	}
	return out
}

func newTestOrchestrator(inv Invoker, notifier JobNotifier) (*Orchestrator, *repository.MemStore, *queue.Runner) {
	store := repository.NewMemStore()
	runner := queue.NewRunner(nil)
	ingester := NewResultIngester(store, nil, nil, nil)
	orch := NewOrchestrator(store, inv, ingester, runner, notifier, nil, nil)
	return orch, store, runner
}

func seriesOutput() map[string]interface{} {
	return map[string]interface{}{
		"status": "success",
		"data": []interface{}{
			map[string]interface{}{"date": "2024-01-01", "value": 1.5},
			map[string]interface{}{"date": "2024-02-01", "value": 2.5},
		},
		"metadata": map[string]interface{}{
			"name":      "Gross Domestic Product",
			"frequency": "quarterly",
		},
	}
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	inv := &fakeInvoker{output: seriesOutput()}
	orch, store, runner := newTestOrchestrator(inv, nil)

	id, err := orch.Submit(context.Background(), models.RunEtlRequest{SeriesID: "GDP"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	job, ok := store.GetEtlJob(id)
	if !ok {
		t.Fatalf("job %d not found", id)
	}
	if job.Status != models.JobCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.Task != "GDP Dataset Update" {
		t.Fatalf("unexpected task %q", job.Task)
	}
	if job.RecordsProcessed == nil || *job.RecordsProcessed != 2 {
		t.Fatalf("records not recorded: %v", job.RecordsProcessed)
	}
	if job.EndTime == nil {
		t.Fatalf("end time not set")
	}

	// Ingestion created the indicator and its values.
	in, ok := store.GetIndicatorBySymbol("GDP")
	if !ok {
		t.Fatalf("indicator not created")
	}
	if in.Name != "Gross Domestic Product" {
		t.Fatalf("metadata not applied: %q", in.Name)
	}
}

func TestSubmitMissingSeries(t *testing.T) {
	orch, store, _ := newTestOrchestrator(&fakeInvoker{}, nil)

	_, err := orch.Submit(context.Background(), models.RunEtlRequest{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.ListEtlJobs(0)) != 0 {
		t.Fatalf("job record created despite rejection")
	}
}

func TestSubmitFailureReachesFailed(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("process exploded")}
	orch, store, runner := newTestOrchestrator(inv, nil)

	id, err := orch.Submit(context.Background(), models.RunEtlRequest{SeriesID: "GDP"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	job, _ := store.GetEtlJob(id)
	if job.Status != models.JobFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.Error == nil || *job.Error != "process exploded" {
		t.Fatalf("error not recorded: %v", job.Error)
	}
	if job.EndTime == nil {
		t.Fatalf("end time not set on failure")
	}
}

func TestSubmitConcurrentDistinctJobs(t *testing.T) {
	inv := &fakeInvoker{output: seriesOutput()}
	orch, store, runner := newTestOrchestrator(inv, nil)

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := orch.Submit(context.Background(), models.RunEtlRequest{SeriesID: "GDP"})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)
	runner.Wait()

	seen := make(map[int64]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate job id %d", id)
		}
		seen[id] = true
	}

	for id := range seen {
		job, _ := store.GetEtlJob(id)
		if job.Status != models.JobCompleted {
			t.Fatalf("job %d not completed: %s", id, job.Status)
		}
	}
}

func TestScheduleInvalidTime(t *testing.T) {
	orch, store, _ := newTestOrchestrator(&fakeInvoker{}, nil)

	_, err := orch.Schedule(context.Background(), models.ScheduleEtlRequest{
		Task:          "GDP Dataset Update",
		ScheduledTime: "whenever",
		SeriesID:      "GDP",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.ListEtlJobs(0)) != 0 {
		t.Fatalf("job record created despite invalid time")
	}
}

func TestScheduleThenPromote(t *testing.T) {
	inv := &fakeInvoker{output: seriesOutput()}
	orch, store, runner := newTestOrchestrator(inv, nil)

	at := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	id, err := orch.Schedule(context.Background(), models.ScheduleEtlRequest{
		Task:          "GDP Dataset Update",
		ScheduledTime: at,
		SeriesID:      "GDP",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	job, _ := store.GetEtlJob(id)
	if job.Status != models.JobScheduled {
		t.Fatalf("expected scheduled, got %s", job.Status)
	}

	if err := orch.Promote(context.Background(), id); err != nil {
		t.Fatalf("promote: %v", err)
	}
	runner.Wait()

	job, _ = store.GetEtlJob(id)
	if job.Status != models.JobCompleted {
		t.Fatalf("expected completed after promotion, got %s", job.Status)
	}

	// A second promotion of a terminal job is a no-op.
	if err := orch.Promote(context.Background(), id); err != nil {
		t.Fatalf("repeat promote: %v", err)
	}
	inv.mu.Lock()
	calls := len(inv.calls)
	inv.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 invocation, got %d", calls)
	}
}

func TestNotifierSeesLifecycle(t *testing.T) {
	inv := &fakeInvoker{output: seriesOutput()}
	rec := &recordingNotifier{}
	orch, _, runner := newTestOrchestrator(inv, rec)

	if _, err := orch.Submit(context.Background(), models.RunEtlRequest{SeriesID: "GDP"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	runner.Wait()

	statuses := rec.statuses()
	if len(statuses) != 2 || statuses[0] != models.JobInProgress || statuses[1] != models.JobCompleted {
		t.Fatalf("unexpected event sequence: %v", statuses)
	}
}

func TestStatusAggregation(t *testing.T) {
	orch, store, _ := newTestOrchestrator(&fakeInvoker{}, nil)

	end := time.Now()
	start := end.Add(-time.Minute)
	records := 5
	store.CreateEtlJob(models.EtlJob{Task: "done", Status: models.JobCompleted, StartTime: &start, EndTime: &end, RecordsProcessed: &records})
	store.CreateEtlJob(models.EtlJob{Task: "running", Status: models.JobInProgress, StartTime: &end})
	store.CreateEtlJob(models.EtlJob{Task: "later", Status: models.JobScheduled, StartTime: &end})

	st := orch.Status()
	if st.Status != "active" {
		t.Fatalf("expected active, got %s", st.Status)
	}
	if st.JobCounts.Completed != 1 || st.JobCounts.InProgress != 1 || st.JobCounts.Scheduled != 1 {
		t.Fatalf("unexpected counts: %+v", st.JobCounts)
	}
	if st.LastRun == nil || !st.LastRun.Equal(end) {
		t.Fatalf("unexpected lastRun: %v", st.LastRun)
	}
	if len(st.RecentJobs) != 3 {
		t.Fatalf("expected 3 recent jobs, got %d", len(st.RecentJobs))
	}
}

func TestStatusIdleWhenEmpty(t *testing.T) {
	orch, _, _ := newTestOrchestrator(&fakeInvoker{}, nil)

	st := orch.Status()
	if st.Status != "idle" {
		t.Fatalf("expected idle, got %s", st.Status)
	}
	if st.LastRun != nil {
		t.Fatalf("expected nil lastRun")
	}
}
