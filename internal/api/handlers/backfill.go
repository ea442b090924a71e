package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/backfill"
)

// BackfillHandler starts enrichment runs and reports their progress
type BackfillHandler struct {
	orch       *backfill.Orchestrator
	strategies map[string]backfill.Strategy
	registry   *backfill.Registry
	logger     *logrus.Logger
}

// NewBackfillHandler creates a new backfill handler
func NewBackfillHandler(
	orch *backfill.Orchestrator,
	strategies []backfill.Strategy,
	registry *backfill.Registry,
	logger *logrus.Logger,
) *BackfillHandler {
	byName := make(map[string]backfill.Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}
	return &BackfillHandler{
		orch:       orch,
		strategies: byName,
		registry:   registry,
		logger:     logger,
	}
}

func (h *BackfillHandler) strategy(w http.ResponseWriter, r *http.Request) (backfill.Strategy, string, bool) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, "", false
	}
	strategy, ok := h.strategies[r.PathValue("op")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown backfill operation")
		return nil, "", false
	}
	return strategy, owner, true
}

// Start handles POST /api/backfill/{op}: kicks off a run in the
// background and returns 202 with the run id. One run per owner and
// operation is allowed at a time.
func (h *BackfillHandler) Start(w http.ResponseWriter, r *http.Request) {
	strategy, owner, ok := h.strategy(w, r)
	if !ok {
		return
	}

	run, err := h.registry.Begin(owner, strategy.Name())
	if err == backfill.ErrRunActive {
		writeError(w, http.StatusConflict, "backfill already running")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// The run outlives the request; it is observable via GET and keeps
	// going until it completes or the process shuts down.
	go func() {
		tally, err := h.orch.Run(context.Background(), owner, strategy, run.Observe)
		h.registry.Finish(run, tally, err)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.ID})
}

// Status handles GET /api/backfill/{op}: live progress of the current
// run, or the final tally of the last one
func (h *BackfillHandler) Status(w http.ResponseWriter, r *http.Request) {
	strategy, owner, ok := h.strategy(w, r)
	if !ok {
		return
	}

	run, found := h.registry.Get(owner, strategy.Name())
	if !found {
		writeError(w, http.StatusNotFound, "no backfill run recorded")
		return
	}
	writeJSON(w, http.StatusOK, run.Status())
}
