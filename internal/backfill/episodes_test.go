package backfill

import (
	"context"
	"reflect"
	"testing"

	"github.com/watchdeck/watchdeck/internal/models"
)

func TestEpisodeBackfillSelects(t *testing.T) {
	strategy := &EpisodeBackfill{}

	cases := []struct {
		name  string
		media models.Media
		want  bool
	}{
		{"candidate", models.Media{Kind: models.KindSeries, ExternalID: "tt0903747", TotalSeasons: 5}, true},
		{"already enriched", models.Media{Kind: models.KindSeries, ExternalID: "tt0903747", TotalSeasons: 5,
			EpisodesPerSeason: map[int]int{1: 7}}, false},
		{"no external id", models.Media{Kind: models.KindSeries, TotalSeasons: 5}, false},
		{"no seasons", models.Media{Kind: models.KindSeries, ExternalID: "tt0903747"}, false},
		{"not a series", models.Media{Kind: models.KindMovie, ExternalID: "tt0133093", TotalSeasons: 1}, false},
	}
	for _, tc := range cases {
		if got := strategy.Selects(&tc.media); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestEpisodeBackfillFetch(t *testing.T) {
	counts := map[int]int{1: 7, 2: 13, 3: 13}
	var lookedUp []int
	strategy := &EpisodeBackfill{
		Screen: &fakeScreen{
			find: func(externalID string) (string, error) {
				if externalID != "tt0903747" {
					t.Errorf("unexpected external id %q", externalID)
				}
				return "1396", nil
			},
			episodes: func(seriesID string, season int) (int, error) {
				if seriesID != "1396" {
					t.Errorf("unexpected series id %q", seriesID)
				}
				lookedUp = append(lookedUp, season)
				return counts[season], nil
			},
		},
	}

	m := &models.Media{
		Kind: models.KindSeries, Title: "Breaking Bad",
		ExternalID: "tt0903747", TotalSeasons: 3,
		WatchedSeasons: []int{1, 2},
	}
	apply, err := strategy.Fetch(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apply == nil {
		t.Fatal("expected an apply function")
	}
	if !reflect.DeepEqual(lookedUp, []int{1, 2, 3}) {
		t.Errorf("expected one lookup per season in order, got %v", lookedUp)
	}

	apply(m)
	if !reflect.DeepEqual(m.EpisodesPerSeason, counts) {
		t.Errorf("unexpected episode counts: %v", m.EpisodesPerSeason)
	}
}

func TestEpisodeBackfillSkipsUnknownSeries(t *testing.T) {
	strategy := &EpisodeBackfill{
		Screen: &fakeScreen{
			find: func(string) (string, error) { return "", nil },
			episodes: func(string, int) (int, error) {
				t.Error("season lookup must not run without a series id")
				return 0, nil
			},
		},
	}

	m := &models.Media{Kind: models.KindSeries, ExternalID: "tt0000000", TotalSeasons: 2}
	apply, err := strategy.Fetch(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apply != nil {
		t.Error("expected nil apply for an unresolvable series")
	}
}

func TestApplyEpisodeCounts(t *testing.T) {
	m := &models.Media{
		Kind: models.KindSeries, TotalSeasons: 3,
		WatchedSeasons: []int{1, 2},
	}

	applyEpisodeCounts(m, map[int]int{1: 10, 2: 8, 3: 12})

	want := map[int][]int{
		1: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		2: {1, 2, 3, 4, 5, 6, 7, 8},
	}
	if !reflect.DeepEqual(m.WatchedEpisodes, want) {
		t.Errorf("unexpected watched episodes: %v", m.WatchedEpisodes)
	}
	if m.CurrentSeason != 2 || m.CurrentEpisode != 8 {
		t.Errorf("expected position (2, 8), got (%d, %d)", m.CurrentSeason, m.CurrentEpisode)
	}
}

func TestApplyEpisodeCountsNoWatchedSeasons(t *testing.T) {
	m := &models.Media{Kind: models.KindSeries, TotalSeasons: 2}

	applyEpisodeCounts(m, map[int]int{1: 6, 2: 6})

	if m.WatchedEpisodes != nil {
		t.Errorf("expected no watched episodes, got %v", m.WatchedEpisodes)
	}
	if m.CurrentSeason != 0 || m.CurrentEpisode != 0 {
		t.Errorf("expected no position, got (%d, %d)", m.CurrentSeason, m.CurrentEpisode)
	}
}

func TestApplyEpisodeCountsPreservesExistingEpisodes(t *testing.T) {
	m := &models.Media{
		Kind: models.KindSeries, TotalSeasons: 2,
		WatchedSeasons:  []int{1},
		WatchedEpisodes: map[int][]int{2: {1, 2, 3}},
	}

	applyEpisodeCounts(m, map[int]int{1: 4, 2: 10})

	want := map[int][]int{
		1: {1, 2, 3, 4},
		2: {1, 2, 3},
	}
	if !reflect.DeepEqual(m.WatchedEpisodes, want) {
		t.Errorf("unexpected watched episodes: %v", m.WatchedEpisodes)
	}
	if m.CurrentSeason != 2 || m.CurrentEpisode != 3 {
		t.Errorf("expected position (2, 3), got (%d, %d)", m.CurrentSeason, m.CurrentEpisode)
	}
}
