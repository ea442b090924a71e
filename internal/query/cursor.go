package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/watchdeck/watchdeck/internal/models"
)

// Cursor identifies the last record returned by the previous page fetch.
// It carries the record id and its sort-key value so a fetch can resume
// strictly after it under the same filter/sort configuration. It is only
// meaningful for the query it was produced by; callers must discard it
// whenever the owner, a filter, or the sort key changes.
type Cursor struct {
	LastID    uint64         `json:"last_id"`
	Sort      models.SortKey `json:"sort"`
	Rating    string         `json:"rating,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
}

// cursorFrom builds a cursor pointing at the given record
func cursorFrom(sortKey models.SortKey, m *models.Media) *Cursor {
	c := &Cursor{LastID: m.ID, Sort: sortKey}
	switch sortKey {
	case models.SortByRating:
		c.Rating = m.Rating
	default:
		c.CreatedAt = m.CreatedAt
	}
	return c
}

// after reconstructs the store-level "start after this document" handle
func (c *Cursor) after() *models.Media {
	return &models.Media{
		ID:        c.LastID,
		Rating:    c.Rating,
		CreatedAt: c.CreatedAt,
	}
}

// Encode serializes the cursor into an opaque page token
func (c *Cursor) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a page token produced by Encode
func DecodeCursor(token string) (*Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid page token: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid page token: %w", err)
	}
	return &c, nil
}
