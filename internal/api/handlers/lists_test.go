package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/models"
)

func listsMux(db *models.Database) http.Handler {
	h := NewListsHandler(db, testLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lists", h.Index)
	mux.HandleFunc("POST /api/lists", h.Create)
	mux.HandleFunc("GET /api/lists/{id}", h.Get)
	mux.HandleFunc("PATCH /api/lists/{id}", h.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", h.Delete)
	mux.HandleFunc("POST /api/lists/{id}/items", h.AddItems)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{mediaID}", h.RemoveItem)
	return middleware.Identity(mux)
}

func TestListLifecycle(t *testing.T) {
	db := setupTestDB(t)
	handler := listsMux(db)

	rec := doRequest(t, handler, http.MethodPost, "/api/lists", "alice",
		map[string]interface{}{"name": "Cozy Winter", "color": "#aabbcc"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var list models.List
	decodeBody(t, rec, &list)
	if list.ID == "" || list.Name != "Cozy Winter" {
		t.Fatalf("unexpected created list: %+v", list)
	}

	a := &models.Media{OwnerID: "alice", Title: "A", Kind: models.KindMovie}
	b := &models.Media{OwnerID: "alice", Title: "B", Kind: models.KindBook}
	for _, m := range []*models.Media{a, b} {
		if err := db.CreateMedia(m); err != nil {
			t.Fatalf("seeding media: %v", err)
		}
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/lists/"+list.ID+"/items", "alice",
		map[string]interface{}{"mediaIds": []uint64{a.ID, b.ID, a.ID}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &list)
	if len(list.MemberIDs) != 2 {
		t.Errorf("expected 2 unique members, got %v", list.MemberIDs)
	}

	rec = doRequest(t, handler, http.MethodDelete,
		fmt.Sprintf("/api/lists/%s/items/%d", list.ID, a.ID), "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &list)
	if len(list.MemberIDs) != 1 || list.MemberIDs[0] != b.ID {
		t.Errorf("expected only B to remain, got %v", list.MemberIDs)
	}

	rec = doRequest(t, handler, http.MethodDelete, "/api/lists/"+list.ID, "alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodGet, "/api/lists/"+list.ID, "alice", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestListVisibility(t *testing.T) {
	db := setupTestDB(t)
	handler := listsMux(db)

	private := &models.List{OwnerID: "alice", Name: "Private"}
	public := &models.List{OwnerID: "alice", Name: "Public", IsPublic: true}
	for _, l := range []*models.List{private, public} {
		if err := db.CreateList(l); err != nil {
			t.Fatalf("creating list: %v", err)
		}
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/lists/"+private.ID, "bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for someone else's private list, got %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/lists/"+public.ID, "bob", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for a public list, got %d", rec.Code)
	}

	// Public visibility does not grant mutation
	rec = doRequest(t, handler, http.MethodPatch, "/api/lists/"+public.ID, "bob",
		map[string]interface{}{"name": "Hijacked"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for mutating someone else's list, got %d", rec.Code)
	}
}

func TestListGetResolvesMembers(t *testing.T) {
	db := setupTestDB(t)
	handler := listsMux(db)

	a := &models.Media{OwnerID: "alice", Title: "Kept", Kind: models.KindMovie}
	b := &models.Media{OwnerID: "alice", Title: "Deleted", Kind: models.KindMovie}
	for _, m := range []*models.Media{a, b} {
		if err := db.CreateMedia(m); err != nil {
			t.Fatalf("seeding media: %v", err)
		}
	}
	list := &models.List{OwnerID: "alice", Name: "Mixed"}
	if err := db.CreateList(list); err != nil {
		t.Fatalf("creating list: %v", err)
	}
	if _, err := db.AddListItems(list.ID, a.ID, b.ID); err != nil {
		t.Fatalf("adding items: %v", err)
	}
	if err := db.DeleteMedia(b.ID); err != nil {
		t.Fatalf("deleting media: %v", err)
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/lists/"+list.ID, "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		models.List
		Records []*models.Media `json:"records"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Records) != 1 || resp.Records[0].Title != "Kept" {
		t.Errorf("expected only the surviving record, got %+v", resp.Records)
	}
}
