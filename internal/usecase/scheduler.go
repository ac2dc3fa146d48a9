package usecase

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"MacroPipe/internal/domain/models"
	domrepo "MacroPipe/internal/domain/repository"
	xlogger "MacroPipe/pkg/logger"
)

// Scheduler promotes scheduled jobs to in_progress when their start time
// comes due. It polls the store on a fixed interval; promotion and execution
// themselves go through the orchestrator.
type Scheduler struct {
	cron         *gocron.Scheduler
	store        domrepo.Store
	orchestrator *Orchestrator
	interval     time.Duration
	logger       *xlogger.Logger
}

// NewScheduler creates a scheduler polling at the given interval.
func NewScheduler(store domrepo.Store, orch *Orchestrator, interval time.Duration, lgr *xlogger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		cron:         gocron.NewScheduler(time.UTC),
		store:        store,
		orchestrator: orch,
		interval:     interval,
		logger:       lgr,
	}
}

// Start begins polling in the background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(s.interval).Do(s.promoteDue); err != nil {
		return err
	}
	s.cron.StartAsync()
	if s.logger != nil {
		s.logger.Info("scheduler started", xlogger.Duration("interval", s.interval))
	}
	return nil
}

// Stop halts polling. In-flight executions finish through the orchestrator.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) promoteDue() {
	now := time.Now()
	for _, job := range s.store.ListEtlJobs(0) {
		if job.Status != models.JobScheduled {
			continue
		}
		if job.StartTime == nil || job.StartTime.After(now) {
			continue
		}
		if err := s.orchestrator.Promote(context.Background(), job.ID); err != nil && s.logger != nil {
			s.logger.Error("scheduled job promotion failed",
				xlogger.Int64("job_id", job.ID),
				xlogger.Error(err),
			)
		}
	}
}
