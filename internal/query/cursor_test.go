package query

import (
	"testing"
	"time"

	"github.com/watchdeck/watchdeck/internal/models"
)

func TestCursorRoundTrip(t *testing.T) {
	original := &Cursor{LastID: 42, Sort: models.SortByRating, Rating: "8.5"}

	token, err := original.Encode()
	if err != nil {
		t.Fatalf("encoding cursor: %v", err)
	}

	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decoding cursor: %v", err)
	}
	if decoded.LastID != 42 || decoded.Sort != models.SortByRating || decoded.Rating != "8.5" {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"not base64 at all!", "aGVsbG8=", ""} {
		if _, err := DecodeCursor(token); err == nil {
			t.Errorf("expected error for token %q", token)
		}
	}
}

func TestCursorFromTracksSortKey(t *testing.T) {
	when := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m := &models.Media{ID: 7, Rating: "6.5", CreatedAt: when}

	c := cursorFrom(models.SortByRating, m)
	if c.Rating != "6.5" || !c.CreatedAt.IsZero() {
		t.Errorf("rating cursor carries wrong fields: %+v", c)
	}

	c = cursorFrom(models.SortByCreatedAt, m)
	if !c.CreatedAt.Equal(when) || c.Rating != "" {
		t.Errorf("createdAt cursor carries wrong fields: %+v", c)
	}
}
