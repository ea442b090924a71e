package backfill

import (
	"context"

	"github.com/watchdeck/watchdeck/internal/models"
)

// ReleaseDateBackfill fills the release date field on records that have
// none, using the same per-kind provider split as the genre backfill.
// Dates stay in each provider's native format.
type ReleaseDateBackfill struct {
	Screen ScreenProvider
	Games  GameProvider
	Books  BookProvider
}

func (b *ReleaseDateBackfill) Name() string { return "release-dates" }

func (b *ReleaseDateBackfill) Scope() *models.Kind { return nil }

func (b *ReleaseDateBackfill) Selects(m *models.Media) bool {
	return m.ReleaseDate == ""
}

func (b *ReleaseDateBackfill) Fetch(ctx context.Context, m *models.Media) (func(*models.Media), error) {
	var date string

	switch m.Kind {
	case models.KindMovie, models.KindSeries:
		title, err := b.Screen.Search(ctx, m.Title, m.Kind)
		if err != nil {
			return nil, err
		}
		if title != nil {
			date = title.ReleaseDate
		}
	case models.KindGame:
		game, err := b.Games.Search(ctx, m.Title)
		if err != nil {
			return nil, err
		}
		if game != nil {
			date = game.Released
		}
	case models.KindBook:
		book, err := b.Books.Search(ctx, m.Title)
		if err != nil {
			return nil, err
		}
		if book != nil {
			date = book.FirstPublished
		}
	}

	if date == "" {
		return nil, nil
	}
	return func(m *models.Media) {
		m.ReleaseDate = date
	}, nil
}
