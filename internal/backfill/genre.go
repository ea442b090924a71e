package backfill

import (
	"context"
	"strings"

	"github.com/watchdeck/watchdeck/internal/models"
)

// GenreBackfill fills the genre field on records that have none,
// dispatching to the provider matching the record's kind
type GenreBackfill struct {
	Screen ScreenProvider
	Games  GameProvider
	Books  BookProvider
}

func (b *GenreBackfill) Name() string { return "genres" }

func (b *GenreBackfill) Scope() *models.Kind { return nil }

func (b *GenreBackfill) Selects(m *models.Media) bool {
	return m.Genre == ""
}

func (b *GenreBackfill) Fetch(ctx context.Context, m *models.Media) (func(*models.Media), error) {
	var genres []string

	switch m.Kind {
	case models.KindMovie, models.KindSeries:
		title, err := b.Screen.Search(ctx, m.Title, m.Kind)
		if err != nil {
			return nil, err
		}
		if title != nil {
			genres = title.Genres
		}
	case models.KindGame:
		game, err := b.Games.Search(ctx, m.Title)
		if err != nil {
			return nil, err
		}
		if game != nil {
			genres = game.Genres
		}
	case models.KindBook:
		book, err := b.Books.Search(ctx, m.Title)
		if err != nil {
			return nil, err
		}
		if book != nil {
			genres = book.Subjects
		}
	}

	if len(genres) == 0 {
		return nil, nil
	}
	joined := strings.Join(genres, ", ")
	return func(m *models.Media) {
		m.Genre = joined
	}, nil
}
