package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	xlogger "MacroPipe/pkg/logger"
	"MacroPipe/pkg/queue"
	xutil "MacroPipe/pkg/util"
)

// recentWindow is how many jobs the pipeline status aggregate considers.
const recentWindow = 5

// etlCapability is the external process that fetches and transforms a series.
const etlCapability = "etl_pipeline"

// Invoker runs one external analytics capability and returns its parsed
// output. Implemented by bridge.Runner; faked in tests.
type Invoker interface {
	Invoke(ctx context.Context, capability string, argv []string) (interface{}, error)
}

// JobEvent describes one job lifecycle transition.
type JobEvent struct {
	JobID  int64            `json:"job_id"`
	Task   string           `json:"task"`
	Status models.JobStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
	Time   time.Time        `json:"time"`
}

// JobNotifier receives job lifecycle transitions (websocket feed, Kafka
// event stream). Must not block the orchestrator for long.
type JobNotifier interface {
	NotifyJobEvent(ctx context.Context, ev JobEvent)
}

// ValidationError rejects bad input before any record is created.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PipelineStatus is the aggregate returned by Status().
type PipelineStatus struct {
	Status     string          `json:"status"` // active | idle
	LastRun    *time.Time      `json:"lastRun"`
	JobCounts  JobCounts       `json:"jobCounts"`
	RecentJobs []models.EtlJob `json:"recentJobs"`
}

// JobCounts breaks the recent window down by status.
type JobCounts struct {
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	InProgress int `json:"inProgress"`
	Scheduled  int `json:"scheduled"`
}

// Orchestrator creates EtlJob records, drives their state machine, and runs
// executions asynchronously through the task runner. It is the only mutator
// of any given job, and mutates it sequentially, so per-job writes are
// totally ordered.
type Orchestrator struct {
	store    domrepo.Store
	bridge   Invoker
	ingester *ResultIngester
	runner   *queue.Runner
	notifier JobNotifier
	metrics  domrepo.Metrics
	logger   *xlogger.Logger
}

// NewOrchestrator creates the orchestrator. notifier and metrics may be nil.
func NewOrchestrator(
	store domrepo.Store,
	bridge Invoker,
	ingester *ResultIngester,
	runner *queue.Runner,
	notifier JobNotifier,
	metrics domrepo.Metrics,
	lgr *xlogger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		bridge:   bridge,
		ingester: ingester,
		runner:   runner,
		notifier: notifier,
		metrics:  metrics,
		logger:   lgr,
	}
}

// Submit creates an in_progress job for the series and begins executing it
// asynchronously. It returns the new job id immediately; the caller never
// waits on the external process.
func (o *Orchestrator) Submit(ctx context.Context, req models.RunEtlRequest) (int64, error) {
	if req.SeriesID == "" {
		return 0, &ValidationError{Msg: "series_id is required"}
	}

	now := time.Now()
	job := o.store.CreateEtlJob(models.EtlJob{
		Task:      fmt.Sprintf("%s Dataset Update", req.SeriesID),
		Status:    models.JobInProgress,
		StartTime: &now,
		Metadata: map[string]interface{}{
			"series_id":  req.SeriesID,
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
		},
	})
	o.notify(ctx, job, "")
	if o.metrics != nil {
		o.metrics.RecordJobStarted(job.Task)
	}

	o.dispatch(ctx, job.ID, job.Task, req)
	return job.ID, nil
}

// Schedule creates a job in scheduled state for a future run. The scheduled
// time must parse as a timestamp; otherwise a ValidationError is returned
// and no record is created.
func (o *Orchestrator) Schedule(ctx context.Context, req models.ScheduleEtlRequest) (int64, error) {
	at, ok := xutil.ParseTime(req.ScheduledTime)
	if !ok {
		return 0, &ValidationError{Msg: fmt.Sprintf("invalid date format for scheduled_time: %q", req.ScheduledTime)}
	}

	job := o.store.CreateEtlJob(models.EtlJob{
		Task:      req.Task,
		Status:    models.JobScheduled,
		StartTime: &at,
		Metadata: map[string]interface{}{
			"series_id":  req.SeriesID,
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
		},
	})
	o.notify(ctx, job, "")
	return job.ID, nil
}

// Promote moves a scheduled job to in_progress and begins executing it. Used
// by the scheduler when a job's start time comes due. Jobs no longer in
// scheduled state are skipped.
func (o *Orchestrator) Promote(ctx context.Context, jobID int64) error {
	job, ok := o.store.GetEtlJob(jobID)
	if !ok {
		return fmt.Errorf("etl job %d not found", jobID)
	}
	if job.Status != models.JobScheduled {
		return nil
	}

	req, err := queue.ParsePayload[models.RunEtlRequest](job.Metadata)
	if err != nil {
		o.fail(ctx, jobID, fmt.Sprintf("invalid job metadata: %v", err))
		return nil
	}

	status := models.JobInProgress
	updated, _ := o.store.UpdateEtlJob(jobID, models.EtlJobUpdate{Status: &status})
	o.notify(ctx, updated, "")
	if o.metrics != nil {
		o.metrics.RecordJobStarted(job.Task)
	}

	o.dispatch(ctx, jobID, job.Task, *req)
	return nil
}

// dispatch hands the execution to the task runner. The failure branch is
// part of the task itself: however execution dies, the job reaches failed.
func (o *Orchestrator) dispatch(ctx context.Context, jobID int64, task string, req models.RunEtlRequest) {
	// The job must outlive the submitting request.
	runCtx := context.WithoutCancel(ctx)

	err := o.runner.Submit(runCtx, queue.Task{
		Name: task,
		Run: func(taskCtx context.Context) error {
			return o.execute(taskCtx, jobID, req)
		},
		Done: func(err error) {
			if err != nil {
				o.fail(runCtx, jobID, err.Error())
			}
		},
	})
	if err != nil && o.logger != nil {
		o.logger.Error("submit etl task",
			xlogger.Int64("job_id", jobID),
			xlogger.Error(err),
		)
	}
}

// execute runs the external ETL process and ingests its output. On success
// the job is transitioned to completed here; any error return (or panic,
// recovered by the runner) is converted to a failed transition by Done.
func (o *Orchestrator) execute(ctx context.Context, jobID int64, req models.RunEtlRequest) error {
	argv := buildEtlArgs(req)

	output, err := o.bridge.Invoke(ctx, etlCapability, argv)
	if err != nil {
		return err
	}

	records, err := o.ingester.IngestSeries(req.SeriesID, output)
	if err != nil {
		return err
	}

	now := time.Now()
	status := models.JobCompleted
	upd := models.EtlJobUpdate{
		Status:           &status,
		EndTime:          &now,
		RecordsProcessed: &records,
	}
	if doc, ok := output.(map[string]interface{}); ok {
		upd.Metadata = doc
	}

	job, ok := o.transition(jobID, upd)
	if !ok {
		return nil
	}
	o.notify(ctx, job, "")
	if o.metrics != nil {
		o.metrics.RecordJobFinished(string(models.JobCompleted))
	}
	if o.logger != nil {
		o.logger.Info("etl job completed",
			xlogger.Int64("job_id", jobID),
			xlogger.String("series", req.SeriesID),
			xlogger.Int("records", records),
		)
	}
	return nil
}

// fail marks the job failed with the given message. This is the single
// failure sink for asynchronous execution; errors never escape past it.
func (o *Orchestrator) fail(ctx context.Context, jobID int64, msg string) {
	now := time.Now()
	status := models.JobFailed
	job, ok := o.transition(jobID, models.EtlJobUpdate{
		Status:  &status,
		EndTime: &now,
		Error:   &msg,
	})
	if !ok {
		return
	}
	o.notify(ctx, job, msg)
	if o.metrics != nil {
		o.metrics.RecordJobFinished(string(models.JobFailed))
	}
	if o.logger != nil {
		o.logger.Error("etl job failed",
			xlogger.Int64("job_id", jobID),
			xlogger.String("error", msg),
		)
	}
}

// transition applies a job update unless the job is already terminal. The
// store does the check and the write in one critical section, so of two
// racing terminal writers exactly one wins.
func (o *Orchestrator) transition(jobID int64, upd models.EtlJobUpdate) (models.EtlJob, bool) {
	job, ok := o.store.TransitionEtlJob(jobID, upd)
	if ok {
		return job, true
	}
	if current, exists := o.store.GetEtlJob(jobID); exists && o.logger != nil {
		o.logger.Warn("ignoring transition on terminal job",
			xlogger.Int64("job_id", jobID),
			xlogger.String("status", string(current.Status)),
		)
	}
	return models.EtlJob{}, false
}

// Jobs lists jobs newest first. limit <= 0 returns all.
func (o *Orchestrator) Jobs(limit int) []models.EtlJob {
	return o.store.ListEtlJobs(limit)
}

// Job returns one job by id.
func (o *Orchestrator) Job(id int64) (models.EtlJob, bool) {
	return o.store.GetEtlJob(id)
}

// Status aggregates the most recent jobs into a pipeline-level view.
func (o *Orchestrator) Status() PipelineStatus {
	recent := o.store.ListEtlJobs(recentWindow)

	var counts JobCounts
	var lastRun *time.Time
	for _, j := range recent {
		switch j.Status {
		case models.JobCompleted:
			counts.Completed++
			if j.EndTime != nil && (lastRun == nil || j.EndTime.After(*lastRun)) {
				lastRun = j.EndTime
			}
		case models.JobFailed:
			counts.Failed++
		case models.JobInProgress:
			counts.InProgress++
		case models.JobScheduled:
			counts.Scheduled++
		}
	}

	status := "idle"
	if counts.InProgress > 0 {
		status = "active"
	}

	return PipelineStatus{
		Status:     status,
		LastRun:    lastRun,
		JobCounts:  counts,
		RecentJobs: recent,
	}
}

func (o *Orchestrator) notify(ctx context.Context, job models.EtlJob, errMsg string) {
	if o.notifier == nil {
		return
	}
	o.notifier.NotifyJobEvent(ctx, JobEvent{
		JobID:  job.ID,
		Task:   job.Task,
		Status: job.Status,
		Error:  errMsg,
		Time:   time.Now(),
	})
}

func buildEtlArgs(req models.RunEtlRequest) []string {
	argv := []string{req.SeriesID}
	if req.StartDate != "" {
		argv = append(argv, "--start_date", req.StartDate)
	}
	if req.EndDate != "" {
		argv = append(argv, "--end_date", req.EndDate)
	}
	return argv
}
