package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/picks"
)

// PipelineRunner runs one pick generation pass.
type PipelineRunner interface {
	Run(ctx context.Context) (*picks.RunSummary, error)
}

// ResultsSyncer pulls finished results for a date window into storage.
type ResultsSyncer func(ctx context.Context, start, end time.Time) error

// Scheduler manages the recurring pipeline and data sync jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
	jobTimeout      time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(baseLogger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		logger:          baseLogger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
		jobTimeout:      30 * time.Minute,
	}
}

// SchedulePipeline schedules recurring pick generation runs
func (s *Scheduler) SchedulePipeline(cronSpec string, runner PipelineRunner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		s.logger.Info("Starting scheduled pipeline run")

		summary, err := runner.Run(ctx)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled pipeline run failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"processed": summary.Processed,
			"emitted":   summary.Emitted,
			"duration":  summary.Duration.String(),
		}).Info("Scheduled pipeline run completed")
	}

	entryID, err := s.cron.AddFunc(cronSpec, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add pipeline job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron_spec", cronSpec).Info("Scheduled pipeline job")

	return nil
}

// ScheduleResultsSync schedules a recurring sync of recently finished
// matches. Each run covers the trailing seven days so a provider outage
// on one run is healed by the next.
func (s *Scheduler) ScheduleResultsSync(cronSpec string, sourceName string, sync ResultsSyncer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		end := time.Now().UTC()
		start := end.Add(-7 * 24 * time.Hour)

		s.logger.WithFields(logrus.Fields{
			"source": sourceName,
			"start":  start.Format("2006-01-02"),
			"end":    end.Format("2006-01-02"),
		}).Info("Starting scheduled results sync")

		if err := sync(ctx, start, end); err != nil {
			s.logger.WithError(err).WithField("source", sourceName).Error("Scheduled results sync failed")
			return
		}
		s.logger.WithField("source", sourceName).Info("Scheduled results sync completed")
	}

	entryID, err := s.cron.AddFunc(cronSpec, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add results sync job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"cron_spec": cronSpec,
		"source":    sourceName,
	}).Info("Scheduled results sync job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running jobs")
	}

	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
