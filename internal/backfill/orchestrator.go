// Package backfill implements idempotent, resumable enrichment of media
// records from the metadata providers. One generic orchestrator runs four
// operations (genres, release dates, runtime/external id, episode
// tracking) that differ only in candidate selection and fetch/apply logic.
package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/models"
)

// Progress reports the item currently being processed. It is delivered
// before the candidate's provider call so a slow or hanging call is
// visible to the observer as "currently processing".
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Title   string `json:"title"`
}

// ProgressFunc observes backfill progress. It is invoked synchronously;
// a slow observer slows the run. It may be called zero or many times.
type ProgressFunc func(Progress)

// Tally is the final accounting of one run. For a run that completes,
// Updated + Skipped + Failed == Total.
type Tally struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Strategy defines one backfill operation. Candidate selection must be
// derived from "target field currently empty" so that re-running the
// operation is a no-op for already-enriched records.
type Strategy interface {
	// Name identifies the operation in logs and the run registry
	Name() string

	// Scope optionally narrows the initial owner query to one kind
	Scope() *models.Kind

	// Selects reports whether m is a candidate for enrichment
	Selects(m *models.Media) bool

	// Fetch looks up the missing value for a candidate. It returns an
	// apply function writing only the fields this operation owns, or
	// nil when the provider had nothing usable (not an error).
	Fetch(ctx context.Context, m *models.Media) (func(*models.Media), error)
}

// Orchestrator runs backfill operations against the store, one candidate
// at a time with a fixed delay between provider calls
type Orchestrator struct {
	db     *models.Database
	delay  time.Duration
	logger *logrus.Logger
}

// NewOrchestrator creates a backfill orchestrator. delay is the pause
// between consecutive candidates.
func NewOrchestrator(db *models.Database, delay time.Duration, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{db: db, delay: delay, logger: logger}
}

// Run executes one backfill operation for one owner. Candidates are
// processed strictly in selection order; a single candidate's failure is
// logged and counted, never aborting the batch. Each record update
// commits independently, so an interrupted run keeps its partial
// progress and the next run picks up only what is still missing.
//
// Cancelling ctx stops the run between candidates; the partial tally is
// returned together with the context error.
func (o *Orchestrator) Run(ctx context.Context, ownerID string, strategy Strategy, onProgress ProgressFunc) (Tally, error) {
	var tally Tally
	if ownerID == "" {
		return tally, nil
	}

	log := o.logger.WithFields(logrus.Fields{
		"operation": strategy.Name(),
		"owner":     ownerID,
	})

	medias, err := o.db.MediaByOwner(ownerID, strategy.Scope())
	if err != nil {
		return tally, fmt.Errorf("failed to load records for backfill: %w", err)
	}

	var candidates []*models.Media
	for _, m := range medias {
		if strategy.Selects(m) {
			candidates = append(candidates, m)
		}
	}
	tally.Total = len(candidates)

	log.WithField("candidates", tally.Total).Info("Starting backfill")

	for i, candidate := range candidates {
		if i > 0 {
			// Pace provider calls; no delay after the final candidate
			select {
			case <-time.After(o.delay):
			case <-ctx.Done():
				return tally, ctx.Err()
			}
		}

		if onProgress != nil {
			onProgress(Progress{Current: i + 1, Total: tally.Total, Title: candidate.Title})
		}

		apply, err := strategy.Fetch(ctx, candidate)
		if err != nil {
			log.WithError(err).WithField("title", candidate.Title).Error("Backfill fetch failed")
			tally.Failed++
			continue
		}
		if apply == nil {
			log.WithField("title", candidate.Title).Debug("No data available, skipping")
			tally.Skipped++
			continue
		}

		if err := o.db.MutateMedia(candidate.ID, func(m *models.Media) error {
			apply(m)
			return nil
		}); err != nil {
			log.WithError(err).WithField("title", candidate.Title).Error("Backfill update failed")
			tally.Failed++
			continue
		}
		tally.Updated++
	}

	log.WithFields(logrus.Fields{
		"total":   tally.Total,
		"updated": tally.Updated,
		"skipped": tally.Skipped,
		"failed":  tally.Failed,
	}).Info("Backfill completed")

	return tally, nil
}
