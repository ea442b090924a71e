package backfill

import (
	"context"

	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/services/openlibrary"
	"github.com/watchdeck/watchdeck/internal/services/rawg"
	"github.com/watchdeck/watchdeck/internal/services/tmdb"
)

// ScreenProvider supplies movie and series metadata. A nil result with a
// nil error means the provider had no usable match for the title.
type ScreenProvider interface {
	Search(ctx context.Context, title string, kind models.Kind) (*tmdb.Title, error)
	Details(ctx context.Context, id string, kind models.Kind) (*tmdb.Details, error)
	FindSeriesByExternalID(ctx context.Context, externalID string) (string, error)
	SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error)
}

// GameProvider supplies game metadata
type GameProvider interface {
	Search(ctx context.Context, title string) (*rawg.Game, error)
}

// BookProvider supplies book metadata
type BookProvider interface {
	Search(ctx context.Context, title string) (*openlibrary.Book, error)
}
