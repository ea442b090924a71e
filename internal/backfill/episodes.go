package backfill

import (
	"context"
	"time"

	"github.com/watchdeck/watchdeck/internal/models"
)

// EpisodeBackfill learns per-season episode counts for series that track
// seasons but not yet episodes. It also expands previously recorded
// fully-watched seasons into explicit episode lists and derives the
// current watch position from them.
//
// One provider call is made per season, so a candidate costs O(seasons)
// wall time, paced by Delay between season lookups.
type EpisodeBackfill struct {
	Screen ScreenProvider
	Delay  time.Duration
}

var kindSeries = models.KindSeries

func (b *EpisodeBackfill) Name() string { return "episodes" }

func (b *EpisodeBackfill) Scope() *models.Kind { return &kindSeries }

func (b *EpisodeBackfill) Selects(m *models.Media) bool {
	return m.Kind == models.KindSeries &&
		!m.HasEpisodeCounts() &&
		m.ExternalID != "" &&
		m.TotalSeasons > 0
}

func (b *EpisodeBackfill) Fetch(ctx context.Context, m *models.Media) (func(*models.Media), error) {
	seriesID, err := b.Screen.FindSeriesByExternalID(ctx, m.ExternalID)
	if err != nil {
		return nil, err
	}
	if seriesID == "" {
		return nil, nil
	}

	counts := make(map[int]int)
	for season := 1; season <= m.TotalSeasons; season++ {
		if season > 1 {
			select {
			case <-time.After(b.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		count, err := b.Screen.SeasonEpisodeCount(ctx, seriesID, season)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			counts[season] = count
		}
	}

	if len(counts) == 0 {
		return nil, nil
	}

	return func(m *models.Media) {
		applyEpisodeCounts(m, counts)
	}, nil
}

// applyEpisodeCounts writes the learned season→episode-count map and the
// fields derived from it: each previously fully-watched season becomes a
// complete episode list, and the current position is the highest watched
// season together with its last episode.
func applyEpisodeCounts(m *models.Media, counts map[int]int) {
	m.EpisodesPerSeason = counts

	watched := m.WatchedEpisodes
	if watched == nil {
		watched = make(map[int][]int)
	}
	for _, season := range m.WatchedSeasons {
		count, ok := counts[season]
		if !ok {
			continue
		}
		episodes := make([]int, count)
		for i := range episodes {
			episodes[i] = i + 1
		}
		watched[season] = episodes
	}
	if len(watched) > 0 {
		m.WatchedEpisodes = watched
	}

	currentSeason := 0
	for season, episodes := range watched {
		if season > currentSeason && len(episodes) > 0 {
			currentSeason = season
		}
	}
	if currentSeason > 0 {
		episodes := watched[currentSeason]
		m.CurrentSeason = currentSeason
		m.CurrentEpisode = episodes[len(episodes)-1]
	}
}
