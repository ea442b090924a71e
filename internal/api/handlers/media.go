package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/query"
)

// MediaHandler handles media record requests
type MediaHandler struct {
	db       *models.Database
	pageSize int
	logger   *logrus.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(db *models.Database, pageSize int, logger *logrus.Logger) *MediaHandler {
	return &MediaHandler{db: db, pageSize: pageSize, logger: logger}
}

// PageResponse is one page of media records plus the load-more handle
type PageResponse struct {
	Records    []*models.Media `json:"records"`
	NextCursor string          `json:"nextCursor,omitempty"`
	HasMore    bool            `json:"hasMore"`
}

// List handles GET /api/media: a filtered, sorted page of the owner's
// records. A cursor query parameter resumes a previous page fetch; an
// absent or empty owner yields an empty page.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	q := r.URL.Query()

	params := query.Params{
		OwnerID:  owner,
		Kind:     models.KindAll,
		Watched:  models.WatchedAll,
		Sort:     models.SortByCreatedAt,
		PageSize: h.pageSize,
		Unpaged:  q.Get("unpaged") == "true",
	}
	if k := q.Get("kind"); k != "" {
		params.Kind = models.KindFilter(k)
	}
	switch q.Get("watched") {
	case "true", "watched":
		params.Watched = models.WatchedOnly
	case "false", "not-watched":
		params.Watched = models.WatchedNot
	}
	if s := q.Get("sort"); s != "" {
		if !models.ValidSortKey(models.SortKey(s)) {
			writeError(w, http.StatusBadRequest, "invalid sort key")
			return
		}
		params.Sort = models.SortKey(s)
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		params.PageSize = n
	}

	var records []*models.Media
	var engine *query.Engine
	if token := q.Get("cursor"); token != "" && !params.Unpaged {
		cursor, err := query.DecodeCursor(token)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page token")
			return
		}
		if cursor.Sort != params.Sort {
			writeError(w, http.StatusBadRequest, "page token does not match sort key")
			return
		}
		engine = query.Resume(h.db, h.logger, params, cursor)
		records = engine.NextPage()
	} else {
		engine = query.NewEngine(h.db, h.logger)
		records = engine.FirstPage(params)
	}

	response := PageResponse{
		Records: records,
		HasMore: engine.HasMore(),
	}
	if response.Records == nil {
		response.Records = []*models.Media{}
	}
	if cursor := engine.Cursor(); cursor != nil && response.HasMore {
		token, err := cursor.Encode()
		if err != nil {
			h.logger.WithError(err).Error("Failed to encode page token")
		} else {
			response.NextCursor = token
		}
	}

	writeJSON(w, http.StatusOK, response)
}

type createMediaRequest struct {
	Title          string      `json:"title"`
	Kind           models.Kind `json:"kind"`
	Rating         string      `json:"rating"`
	Image          string      `json:"image"`
	Description    string      `json:"description"`
	Watched        bool        `json:"watched"`
	IsFavorite     bool        `json:"isFavorite"`
	TotalSeasons   int         `json:"totalSeasons"`
	WatchedSeasons []int       `json:"watchedSeasons"`
}

// Create handles POST /api/media
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !models.ValidKind(req.Kind) {
		writeError(w, http.StatusBadRequest, "invalid kind")
		return
	}
	if !models.ValidRating(req.Rating) {
		writeError(w, http.StatusBadRequest, "rating must be between 0.0 and 9.9")
		return
	}
	if req.Kind != models.KindSeries && (req.TotalSeasons != 0 || len(req.WatchedSeasons) != 0) {
		writeError(w, http.StatusBadRequest, "season fields are only valid for series")
		return
	}

	media := &models.Media{
		OwnerID:        owner,
		Title:          req.Title,
		Kind:           req.Kind,
		Rating:         req.Rating,
		Image:          req.Image,
		Description:    req.Description,
		Watched:        req.Watched,
		IsFavorite:     req.IsFavorite,
		TotalSeasons:   req.TotalSeasons,
		WatchedSeasons: req.WatchedSeasons,
	}
	if err := h.db.CreateMedia(media); err != nil {
		h.logger.WithError(err).Error("Failed to create media record")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, media)
}

// ownedMedia loads the record in the path and verifies ownership.
// Records of other owners are reported as not found.
func (h *MediaHandler) ownedMedia(w http.ResponseWriter, r *http.Request) (*models.Media, bool) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return nil, false
	}

	media, err := h.db.GetMediaByID(id)
	if err == models.ErrNotFound {
		writeError(w, http.StatusNotFound, "record not found")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get media record")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if media.OwnerID != owner {
		writeError(w, http.StatusNotFound, "record not found")
		return nil, false
	}
	return media, true
}

// Get handles GET /api/media/{id}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, media)
}

type updateMediaRequest struct {
	Title       *string `json:"title"`
	Rating      *string `json:"rating"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
}

// Update handles PATCH /api/media/{id}: edits to title, description,
// image and rating. Kind and owner are immutable; enrichment fields are
// only written by backfill.
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}

	var req updateMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if req.Rating != nil && !models.ValidRating(*req.Rating) {
		writeError(w, http.StatusBadRequest, "rating must be between 0.0 and 9.9")
		return
	}

	err := h.db.MutateMedia(media.ID, func(m *models.Media) error {
		if req.Title != nil {
			m.Title = *req.Title
		}
		if req.Rating != nil {
			m.Rating = *req.Rating
		}
		if req.Image != nil {
			m.Image = *req.Image
		}
		if req.Description != nil {
			m.Description = *req.Description
		}
		return nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to update media record")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	updated, err := h.db.GetMediaByID(media.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/media/{id}. Deletion is immediate and
// irreversible; list membership is cleaned up lazily at read time.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteMedia(media.ID); err != nil {
		h.logger.WithError(err).Error("Failed to delete media record")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleWatched handles POST /api/media/{id}/watched
func (h *MediaHandler) ToggleWatched(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(m *models.Media) { m.Watched = !m.Watched })
}

// ToggleFavorite handles POST /api/media/{id}/favorite
func (h *MediaHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(m *models.Media) { m.IsFavorite = !m.IsFavorite })
}

func (h *MediaHandler) toggle(w http.ResponseWriter, r *http.Request, flip func(*models.Media)) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}
	err := h.db.MutateMedia(media.ID, func(m *models.Media) error {
		flip(m)
		return nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to toggle media record")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	updated, err := h.db.GetMediaByID(media.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type progressRequest struct {
	CurrentSeason   int           `json:"currentSeason"`
	CurrentEpisode  int           `json:"currentEpisode"`
	WatchedSeasons  []int         `json:"watchedSeasons"`
	WatchedEpisodes map[int][]int `json:"watchedEpisodes"`
}

// Progress handles PUT /api/media/{id}/progress for series watch state
func (h *MediaHandler) Progress(w http.ResponseWriter, r *http.Request) {
	media, ok := h.ownedMedia(w, r)
	if !ok {
		return
	}
	if media.Kind != models.KindSeries {
		writeError(w, http.StatusBadRequest, "watch progress is only valid for series")
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if media.TotalSeasons > 0 {
		for season := range req.WatchedEpisodes {
			if season < 1 || season > media.TotalSeasons {
				writeError(w, http.StatusBadRequest, "season out of range")
				return
			}
		}
	}

	err := h.db.MutateMedia(media.ID, func(m *models.Media) error {
		m.CurrentSeason = req.CurrentSeason
		m.CurrentEpisode = req.CurrentEpisode
		if req.WatchedSeasons != nil {
			m.WatchedSeasons = req.WatchedSeasons
		}
		if req.WatchedEpisodes != nil {
			m.WatchedEpisodes = req.WatchedEpisodes
		}
		return nil
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to update watch progress")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	updated, err := h.db.GetMediaByID(media.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
