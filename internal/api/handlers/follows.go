package handlers

import (
	"net/http"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/models"
)

// perFolloweeActivity caps how many recent records each followee
// contributes to the feed
const perFolloweeActivity = 10

// activityFeedSize caps the merged feed
const activityFeedSize = 50

// FollowsHandler handles follow edges and the activity feed
type FollowsHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewFollowsHandler creates a new follows handler
func NewFollowsHandler(db *models.Database, logger *logrus.Logger) *FollowsHandler {
	return &FollowsHandler{db: db, logger: logger}
}

// Follow handles PUT /api/follows/{userID}
func (h *FollowsHandler) Follow(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	followee := r.PathValue("userID")
	if err := h.db.UpsertFollow(owner, followee); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /api/follows/{userID}
func (h *FollowsHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.db.DeleteFollow(owner, r.PathValue("userID")); err != nil {
		h.logger.WithError(err).Error("Failed to delete follow")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivityEntry is one followed user's record in the feed. Only public
// fields are exposed; ratings and watch state stay private.
type ActivityEntry struct {
	UserID  string      `json:"userId"`
	Title   string      `json:"title"`
	Kind    models.Kind `json:"kind"`
	Image   string      `json:"image,omitempty"`
	AddedAt string      `json:"addedAt"`
}

// Activity handles GET /api/activity: the most recent additions of the
// users the requester follows, newest first
func (h *FollowsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeJSON(w, http.StatusOK, []ActivityEntry{})
		return
	}

	followees, err := h.db.Followees(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get followees")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var recent []*models.Media
	for _, followee := range followees {
		medias, err := h.db.QueryMedia(models.MediaQuery{
			OwnerID: followee,
			Kind:    models.KindAll,
			Watched: models.WatchedAll,
			Sort:    models.SortByCreatedAt,
			Limit:   perFolloweeActivity,
		})
		if err != nil {
			h.logger.WithError(err).WithField("followee", followee).Error("Failed to query activity")
			continue
		}
		recent = append(recent, medias...)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > activityFeedSize {
		recent = recent[:activityFeedSize]
	}

	entries := make([]ActivityEntry, 0, len(recent))
	for _, m := range recent {
		entries = append(entries, ActivityEntry{
			UserID:  m.OwnerID,
			Title:   m.Title,
			Kind:    m.Kind,
			Image:   m.Image,
			AddedAt: m.CreatedAt.Format("2006-01-02"),
		})
	}

	writeJSON(w, http.StatusOK, entries)
}
