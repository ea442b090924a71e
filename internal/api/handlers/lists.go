package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/models"
)

// ListsHandler handles custom list requests
type ListsHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewListsHandler creates a new lists handler
func NewListsHandler(db *models.Database, logger *logrus.Logger) *ListsHandler {
	return &ListsHandler{db: db, logger: logger}
}

// Index handles GET /api/lists
func (h *ListsHandler) Index(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeJSON(w, http.StatusOK, []*models.List{})
		return
	}

	lists, err := h.db.GetListsByOwner(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get lists")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if lists == nil {
		lists = []*models.List{}
	}
	writeJSON(w, http.StatusOK, lists)
}

type createListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsPublic    bool   `json:"isPublic"`
}

// Create handles POST /api/lists
func (h *ListsHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.Owner(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	list := &models.List{
		OwnerID:     owner,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsPublic:    req.IsPublic,
	}
	if err := h.db.CreateList(list); err != nil {
		h.logger.WithError(err).Error("Failed to create list")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, list)
}

// ownedList loads the list in the path. Reads are allowed for public
// lists; mutations require ownership.
func (h *ListsHandler) ownedList(w http.ResponseWriter, r *http.Request, readOnly bool) (*models.List, bool) {
	owner := middleware.Owner(r)

	list, err := h.db.GetListByID(r.PathValue("id"))
	if err == models.ErrNotFound {
		writeError(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get list")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if list.OwnerID != owner {
		if readOnly && list.IsPublic {
			return list, true
		}
		writeError(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	return list, true
}

// listResponse is a list together with its resolved member records
type listResponse struct {
	*models.List
	Records []*models.Media `json:"records"`
}

// Get handles GET /api/lists/{id}. Member ids whose records have been
// deleted are dropped from the response without rewriting the list.
func (h *ListsHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r, true)
	if !ok {
		return
	}

	records, err := h.db.ResolveList(list)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve list members")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{List: list, Records: records})
}

type updateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsPublic    *bool   `json:"isPublic"`
}

// Update handles PATCH /api/lists/{id}
func (h *ListsHandler) Update(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r, false)
	if !ok {
		return
	}

	var req updateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}

	if req.Name != nil {
		list.Name = *req.Name
	}
	if req.Description != nil {
		list.Description = *req.Description
	}
	if req.Color != nil {
		list.Color = *req.Color
	}
	if req.Icon != nil {
		list.Icon = *req.Icon
	}
	if req.IsPublic != nil {
		list.IsPublic = *req.IsPublic
	}

	if err := h.db.UpdateList(list); err != nil {
		h.logger.WithError(err).Error("Failed to update list")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Delete handles DELETE /api/lists/{id}
func (h *ListsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r, false)
	if !ok {
		return
	}
	if err := h.db.DeleteList(list.ID); err != nil {
		h.logger.WithError(err).Error("Failed to delete list")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemsRequest struct {
	MediaIDs []uint64 `json:"mediaIds"`
}

// AddItems handles POST /api/lists/{id}/items as a set union: ids
// already present are left in place
func (h *ListsHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r, false)
	if !ok {
		return
	}

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.MediaIDs) == 0 {
		writeError(w, http.StatusBadRequest, "mediaIds is required")
		return
	}

	updated, err := h.db.AddListItems(list.ID, req.MediaIDs...)
	if err != nil {
		h.logger.WithError(err).Error("Failed to add list items")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RemoveItem handles DELETE /api/lists/{id}/items/{mediaID}
func (h *ListsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	list, ok := h.ownedList(w, r, false)
	if !ok {
		return
	}

	mediaID, err := strconv.ParseUint(r.PathValue("mediaID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	updated, err := h.db.RemoveListItem(list.ID, mediaID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to remove list item")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
