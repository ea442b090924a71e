package models

import (
	"os"
	"testing"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "watchdeck_test_*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	tmpfile.Close()
	os.Remove(tmpfile.Name())

	db, err := NewDatabase(tmpfile.Name())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(tmpfile.Name())
	})

	return db
}

func seedMedia(t *testing.T, db *Database, media *Media) *Media {
	t.Helper()
	if err := db.CreateMedia(media); err != nil {
		t.Fatalf("creating media: %v", err)
	}
	return media
}

func TestCreateMedia(t *testing.T) {
	db := setupTestDB(t)

	media := seedMedia(t, db, &Media{OwnerID: "alice", Title: "Dune", Kind: KindMovie})
	if media.ID == 0 {
		t.Error("expected assigned id")
	}
	if media.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	if err := db.CreateMedia(&Media{Title: "No Owner", Kind: KindMovie}); err == nil {
		t.Error("expected error for missing owner")
	}
	if err := db.CreateMedia(&Media{OwnerID: "alice", Title: "Bad", Kind: "album"}); err == nil {
		t.Error("expected error for invalid kind")
	}
}

func TestMutateMediaPreservesIdentity(t *testing.T) {
	db := setupTestDB(t)
	media := seedMedia(t, db, &Media{OwnerID: "alice", Title: "Hades", Kind: KindGame})

	err := db.MutateMedia(media.ID, func(m *Media) error {
		m.Title = "Hades II"
		m.OwnerID = "mallory"
		m.Kind = KindMovie
		return nil
	})
	if err != nil {
		t.Fatalf("mutating media: %v", err)
	}

	got, err := db.GetMediaByID(media.ID)
	if err != nil {
		t.Fatalf("getting media: %v", err)
	}
	if got.Title != "Hades II" {
		t.Errorf("expected title update, got %q", got.Title)
	}
	if got.OwnerID != "alice" {
		t.Errorf("owner must be immutable, got %q", got.OwnerID)
	}
	if got.Kind != KindGame {
		t.Errorf("kind must be immutable, got %q", got.Kind)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestQueryMediaFiltersAndOrdering(t *testing.T) {
	db := setupTestDB(t)

	seedMedia(t, db, &Media{OwnerID: "alice", Title: "A", Kind: KindMovie, Rating: "8.5", Watched: true})
	seedMedia(t, db, &Media{OwnerID: "alice", Title: "B", Kind: KindBook, Rating: "9.1"})
	seedMedia(t, db, &Media{OwnerID: "alice", Title: "C", Kind: KindMovie, Rating: "7.0"})
	seedMedia(t, db, &Media{OwnerID: "bob", Title: "D", Kind: KindMovie, Rating: "9.9"})

	got, err := db.QueryMedia(MediaQuery{OwnerID: "alice", Kind: KindAll, Watched: WatchedAll, Sort: SortByRating})
	if err != nil {
		t.Fatalf("querying media: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Title != "B" || got[1].Title != "A" || got[2].Title != "C" {
		t.Errorf("unexpected rating order: %s, %s, %s", got[0].Title, got[1].Title, got[2].Title)
	}

	got, err = db.QueryMedia(MediaQuery{OwnerID: "alice", Kind: KindFilter(KindMovie), Watched: WatchedNot, Sort: SortByRating})
	if err != nil {
		t.Fatalf("querying media: %v", err)
	}
	if len(got) != 1 || got[0].Title != "C" {
		t.Fatalf("expected only unwatched movie C, got %d records", len(got))
	}
}

func TestQueryMediaEmptyOwner(t *testing.T) {
	db := setupTestDB(t)
	seedMedia(t, db, &Media{OwnerID: "alice", Title: "A", Kind: KindMovie})

	got, err := db.QueryMedia(MediaQuery{OwnerID: "", Kind: KindAll, Watched: WatchedAll, Sort: SortByRating})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result for empty owner, got %d", len(got))
	}
}

func TestQueryMediaCursor(t *testing.T) {
	db := setupTestDB(t)

	ratings := []string{"9.0", "8.0", "7.0", "6.0", "5.0"}
	for i, r := range ratings {
		seedMedia(t, db, &Media{OwnerID: "alice", Title: string(rune('A' + i)), Kind: KindMovie, Rating: r})
	}

	first, err := db.QueryMedia(MediaQuery{OwnerID: "alice", Kind: KindAll, Watched: WatchedAll, Sort: SortByRating, Limit: 2})
	if err != nil {
		t.Fatalf("querying first page: %v", err)
	}
	if len(first) != 2 || first[0].Rating != "9.0" || first[1].Rating != "8.0" {
		t.Fatalf("unexpected first page")
	}

	second, err := db.QueryMedia(MediaQuery{
		OwnerID: "alice", Kind: KindAll, Watched: WatchedAll, Sort: SortByRating,
		After: first[1], Limit: 2,
	})
	if err != nil {
		t.Fatalf("querying second page: %v", err)
	}
	if len(second) != 2 || second[0].Rating != "7.0" || second[1].Rating != "6.0" {
		t.Fatalf("unexpected second page")
	}
}

func TestQueryMediaCursorEqualSortValues(t *testing.T) {
	db := setupTestDB(t)

	// All records share one rating; pagination must fall back to the
	// insertion-order tie-break and still visit each record once.
	for i := 0; i < 5; i++ {
		seedMedia(t, db, &Media{OwnerID: "alice", Title: string(rune('A' + i)), Kind: KindMovie, Rating: "7.5"})
	}

	seen := make(map[uint64]bool)
	var after *Media
	for {
		page, err := db.QueryMedia(MediaQuery{
			OwnerID: "alice", Kind: KindAll, Watched: WatchedAll, Sort: SortByRating,
			After: after, Limit: 2,
		})
		if err != nil {
			t.Fatalf("querying page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			if seen[m.ID] {
				t.Fatalf("record %d returned twice", m.ID)
			}
			seen[m.ID] = true
		}
		after = page[len(page)-1]
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 distinct records, got %d", len(seen))
	}
}

func TestListMembership(t *testing.T) {
	db := setupTestDB(t)

	a := seedMedia(t, db, &Media{OwnerID: "alice", Title: "A", Kind: KindMovie})
	b := seedMedia(t, db, &Media{OwnerID: "alice", Title: "B", Kind: KindBook})

	list := &List{OwnerID: "alice", Name: "Favorites"}
	if err := db.CreateList(list); err != nil {
		t.Fatalf("creating list: %v", err)
	}
	if list.ID == "" {
		t.Fatal("expected assigned list id")
	}

	// Add is a set union: repeated ids stay unique
	updated, err := db.AddListItems(list.ID, a.ID, b.ID, a.ID)
	if err != nil {
		t.Fatalf("adding items: %v", err)
	}
	if len(updated.MemberIDs) != 2 {
		t.Fatalf("expected 2 unique members, got %d", len(updated.MemberIDs))
	}
	if updated.MemberIDs[0] != a.ID || updated.MemberIDs[1] != b.ID {
		t.Error("expected insertion order to be preserved")
	}

	updated, err = db.RemoveListItem(list.ID, a.ID)
	if err != nil {
		t.Fatalf("removing item: %v", err)
	}
	if len(updated.MemberIDs) != 1 || updated.MemberIDs[0] != b.ID {
		t.Error("expected only B to remain")
	}
}

func TestResolveListDropsDeletedRecords(t *testing.T) {
	db := setupTestDB(t)

	a := seedMedia(t, db, &Media{OwnerID: "alice", Title: "A", Kind: KindMovie})
	b := seedMedia(t, db, &Media{OwnerID: "alice", Title: "B", Kind: KindBook})

	list := &List{OwnerID: "alice", Name: "Mixed"}
	if err := db.CreateList(list); err != nil {
		t.Fatalf("creating list: %v", err)
	}
	if _, err := db.AddListItems(list.ID, a.ID, b.ID); err != nil {
		t.Fatalf("adding items: %v", err)
	}

	if err := db.DeleteMedia(a.ID); err != nil {
		t.Fatalf("deleting media: %v", err)
	}

	list, err := db.GetListByID(list.ID)
	if err != nil {
		t.Fatalf("getting list: %v", err)
	}
	// Membership is not rewritten on delete
	if len(list.MemberIDs) != 2 {
		t.Fatalf("expected membership untouched, got %d ids", len(list.MemberIDs))
	}

	records, err := db.ResolveList(list)
	if err != nil {
		t.Fatalf("resolving list: %v", err)
	}
	if len(records) != 1 || records[0].ID != b.ID {
		t.Error("expected deleted record to be dropped at read time")
	}
}

func TestFollows(t *testing.T) {
	db := setupTestDB(t)

	if err := db.UpsertFollow("alice", "bob"); err != nil {
		t.Fatalf("following: %v", err)
	}
	// Repeated follow is a no-op
	if err := db.UpsertFollow("alice", "bob"); err != nil {
		t.Fatalf("re-following: %v", err)
	}
	if err := db.UpsertFollow("alice", "carol"); err != nil {
		t.Fatalf("following: %v", err)
	}
	if err := db.UpsertFollow("alice", "alice"); err == nil {
		t.Error("expected self-follow to be rejected")
	}

	followees, err := db.Followees("alice")
	if err != nil {
		t.Fatalf("listing followees: %v", err)
	}
	if len(followees) != 2 || followees[0] != "bob" || followees[1] != "carol" {
		t.Fatalf("unexpected followees: %v", followees)
	}

	if err := db.DeleteFollow("alice", "bob"); err != nil {
		t.Fatalf("unfollowing: %v", err)
	}
	followees, _ = db.Followees("alice")
	if len(followees) != 1 || followees[0] != "carol" {
		t.Fatalf("unexpected followees after unfollow: %v", followees)
	}
}

func TestOwners(t *testing.T) {
	db := setupTestDB(t)

	seedMedia(t, db, &Media{OwnerID: "bob", Title: "A", Kind: KindMovie})
	seedMedia(t, db, &Media{OwnerID: "alice", Title: "B", Kind: KindBook})
	seedMedia(t, db, &Media{OwnerID: "alice", Title: "C", Kind: KindGame})

	owners, err := db.Owners()
	if err != nil {
		t.Fatalf("listing owners: %v", err)
	}
	if len(owners) != 2 || owners[0] != "alice" || owners[1] != "bob" {
		t.Fatalf("unexpected owners: %v", owners)
	}
}
