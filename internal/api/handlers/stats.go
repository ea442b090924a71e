package handlers

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/stats"
)

// StatsHandler handles statistics requests
type StatsHandler struct {
	stats  *stats.Service
	logger *logrus.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service *stats.Service, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{stats: service, logger: logger}
}

// Summary handles GET /api/stats
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Summary(middleware.Owner(r)))
}

// YearInReview handles GET /api/stats/year/{year}
func (h *StatsHandler) YearInReview(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1900 || year > 2200 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	writeJSON(w, http.StatusOK, h.stats.YearInReview(middleware.Owner(r), year))
}
