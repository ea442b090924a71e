// Package stats computes per-owner catalog summaries, including the
// year-in-review rollup.
package stats

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/query"
)

// GenreCount is one genre and how many records carry it
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// Summary is the overall view of one owner's catalog
type Summary struct {
	Total         int                 `json:"total"`
	ByKind        map[models.Kind]int `json:"byKind"`
	Watched       int                 `json:"watched"`
	Favorites     int                 `json:"favorites"`
	Rated         int                 `json:"rated"`
	AverageRating float64             `json:"averageRating"`
	TopGenres     []GenreCount        `json:"topGenres"`
}

// RatedTitle is one entry of the year's top-rated list
type RatedTitle struct {
	Title  string      `json:"title"`
	Kind   models.Kind `json:"kind"`
	Rating string      `json:"rating"`
}

// YearInReview summarizes one calendar year of an owner's catalog
type YearInReview struct {
	Year      int                 `json:"year"`
	Added     int                 `json:"added"`
	Watched   int                 `json:"watched"`
	ByKind    map[models.Kind]int `json:"byKind"`
	TopRated  []RatedTitle        `json:"topRated"`
	TopGenres []GenreCount        `json:"topGenres"`
}

// Service computes statistics by reading the owner's full catalog
// through the query engine's unpaged mode
type Service struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewService creates a stats service
func NewService(db *models.Database, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) allRecords(ownerID string) []*models.Media {
	engine := query.NewEngine(s.db, s.logger)
	return engine.FirstPage(query.Params{
		OwnerID: ownerID,
		Kind:    models.KindAll,
		Watched: models.WatchedAll,
		Sort:    models.SortByCreatedAt,
		Unpaged: true,
	})
}

// Summary computes the overall catalog summary for one owner
func (s *Service) Summary(ownerID string) *Summary {
	medias := s.allRecords(ownerID)

	summary := &Summary{ByKind: make(map[models.Kind]int)}
	var ratingSum float64
	genres := make(map[string]int)

	for _, m := range medias {
		summary.Total++
		summary.ByKind[m.Kind]++
		if m.Watched {
			summary.Watched++
		}
		if m.IsFavorite {
			summary.Favorites++
		}
		if v := models.RatingValue(m.Rating); v >= 0 {
			summary.Rated++
			ratingSum += v
		}
		countGenres(genres, m.Genre)
	}

	if summary.Rated > 0 {
		summary.AverageRating = ratingSum / float64(summary.Rated)
	}
	summary.TopGenres = topGenres(genres, 5)
	return summary
}

// YearInReview computes the rollup for one calendar year: what was added
// that year, how much of it is watched, and what stood out
func (s *Service) YearInReview(ownerID string, year int) *YearInReview {
	medias := s.allRecords(ownerID)

	review := &YearInReview{Year: year, ByKind: make(map[models.Kind]int)}
	genres := make(map[string]int)
	var rated []*models.Media

	for _, m := range medias {
		if m.CreatedAt.Year() != year {
			continue
		}
		review.Added++
		review.ByKind[m.Kind]++
		if m.Watched {
			review.Watched++
		}
		if models.RatingValue(m.Rating) >= 0 {
			rated = append(rated, m)
		}
		countGenres(genres, m.Genre)
	}

	sort.SliceStable(rated, func(i, j int) bool {
		return models.RatingValue(rated[i].Rating) > models.RatingValue(rated[j].Rating)
	})
	if len(rated) > 5 {
		rated = rated[:5]
	}
	for _, m := range rated {
		review.TopRated = append(review.TopRated, RatedTitle{
			Title:  m.Title,
			Kind:   m.Kind,
			Rating: m.Rating,
		})
	}

	review.TopGenres = topGenres(genres, 5)
	return review
}

func countGenres(into map[string]int, genre string) {
	for _, g := range strings.Split(genre, ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			into[g]++
		}
	}
}

func topGenres(counts map[string]int, limit int) []GenreCount {
	result := make([]GenreCount, 0, len(counts))
	for g, n := range counts {
		result = append(result, GenreCount{Genre: g, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Genre < result[j].Genre
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
