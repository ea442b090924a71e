package models

import "time"

// Media represents one cataloged item (movie, series, game or book)
type Media struct {
	ID      uint64 `boltholdKey:"ID" json:"id"`
	OwnerID string `boltholdIndex:"OwnerID" json:"ownerId"` // set at creation, never changed

	Title       string `json:"title"`
	Kind        Kind   `json:"kind"`             // immutable after creation
	Rating      string `json:"rating,omitempty"` // decimal string, "0.0".."9.9"
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Watched     bool   `json:"watched"`
	IsFavorite  bool   `json:"isFavorite"`

	// Enrichment fields, filled in by backfill operations only
	Genre       string `json:"genre,omitempty"`       // comma-joined
	ReleaseDate string `json:"releaseDate,omitempty"` // provider-native format
	Runtime     string `json:"runtime,omitempty"`
	ExternalID  string `json:"externalId,omitempty"` // provider catalog id, e.g. IMDb id

	// Series tracking
	TotalSeasons      int           `json:"totalSeasons,omitempty"`
	WatchedSeasons    []int         `json:"watchedSeasons,omitempty"` // seasons marked fully watched before per-episode tracking existed
	EpisodesPerSeason map[int]int   `json:"episodesPerSeason,omitempty"`
	WatchedEpisodes   map[int][]int `json:"watchedEpisodes,omitempty"`
	CurrentSeason     int           `json:"currentSeason,omitempty"`
	CurrentEpisode    int           `json:"currentEpisode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasEpisodeCounts reports whether the per-season episode map has been learned
func (m *Media) HasEpisodeCounts() bool {
	return len(m.EpisodesPerSeason) > 0
}
