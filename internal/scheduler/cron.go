package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/backfill"
	"github.com/watchdeck/watchdeck/internal/models"
)

// Scheduler runs the enrichment sweep on a cron schedule: every backfill
// operation for every owner, one owner at a time
type Scheduler struct {
	cron       *cron.Cron
	db         *models.Database
	orch       *backfill.Orchestrator
	strategies []backfill.Strategy
	registry   *backfill.Registry
	schedule   string
	logger     *logrus.Logger
}

// NewScheduler creates a new scheduler. An empty schedule disables the
// recurring sweep; the startup sweep still runs.
func NewScheduler(
	db *models.Database,
	orch *backfill.Orchestrator,
	strategies []backfill.Strategy,
	registry *backfill.Registry,
	schedule string,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		db:         db,
		orch:       orch,
		strategies: strategies,
		registry:   registry,
		schedule:   schedule,
		logger:     logger,
	}
}

// Start starts the scheduler and kicks off an immediate sweep
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.runEnrichment); err != nil {
			return err
		}
	}

	s.cron.Start()

	go s.runEnrichment()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runEnrichment executes every backfill operation for every owner.
// Owners and operations are processed sequentially so provider pacing is
// preserved across the whole sweep. Operations with a manual run already
// in flight are skipped.
func (s *Scheduler) runEnrichment() {
	s.logger.Info("Running scheduled enrichment sweep")
	ctx := context.Background()

	owners, err := s.db.Owners()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list owners")
		return
	}

	for _, owner := range owners {
		for _, strategy := range s.strategies {
			if s.registry.Active(owner, strategy.Name()) {
				s.logger.WithFields(logrus.Fields{
					"owner":     owner,
					"operation": strategy.Name(),
				}).Debug("Backfill already running, skipping")
				continue
			}

			run, err := s.registry.Begin(owner, strategy.Name())
			if err != nil {
				continue
			}

			tally, err := s.orch.Run(ctx, owner, strategy, run.Observe)
			s.registry.Finish(run, tally, err)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"owner":     owner,
					"operation": strategy.Name(),
				}).Error("Enrichment run failed")
			}
		}
	}

	s.logger.Info("Enrichment sweep completed")
}
