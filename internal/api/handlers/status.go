package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/models"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: logger}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalRecords int            `json:"total_records"`
	Watched      int            `json:"watched"`
	Favorites    int            `json:"favorites"`
	ByKind       map[string]int `json:"by_kind"`
}

// ServeHTTP reports catalog counts for the requesting owner
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)

	response := StatusResponse{ByKind: make(map[string]int)}

	medias, err := h.db.MediaByOwner(owner, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get media records")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	for _, media := range medias {
		response.TotalRecords++
		if media.Watched {
			response.Watched++
		}
		if media.IsFavorite {
			response.Favorites++
		}
		response.ByKind[string(media.Kind)]++
	}

	writeJSON(w, http.StatusOK, response)
}
