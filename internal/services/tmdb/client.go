// Package tmdb is the movie/series metadata provider client.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/watchdeck/watchdeck/internal/models"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// genreNames maps genre ids to names; search responses carry only ids
var genreNames = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance",
	878: "Science Fiction", 10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
	// TV-specific
	10759: "Action & Adventure", 10762: "Kids", 10763: "News", 10764: "Reality",
	10765: "Sci-Fi & Fantasy", 10766: "Soap", 10767: "Talk", 10768: "War & Politics",
}

// Title is a search match for a movie or series
type Title struct {
	ID          string
	Genres      []string
	ReleaseDate string
}

// Details carries the per-title lookup fields the search response lacks
type Details struct {
	Runtime    string // minutes, as text
	ExternalID string // IMDb id
}

// Client handles communication with the TMDB API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new TMDB client
func NewClient(apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		cache:      gocache.New(10*time.Minute, 30*time.Minute),
		logger:     logger,
	}
}

// get performs a rate-limited GET with bounded retries on transient
// failures. Non-2xx terminal statuses are not retried.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.logger.WithField("path", path).Debug("Making TMDB API request")

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("API request failed with status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx))
}

type searchResponse struct {
	Results []struct {
		ID           int    `json:"id"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
		GenreIDs     []int  `json:"genre_ids"`
	} `json:"results"`
}

// Search finds the best match for a title. A nil result means the
// provider has nothing usable; callers treat that as "skip".
func (c *Client) Search(ctx context.Context, title string, kind models.Kind) (*Title, error) {
	searchType := "movie"
	if kind == models.KindSeries {
		searchType = "tv"
	}

	cacheKey := "search:" + searchType + ":" + title
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*Title), nil
	}

	params := url.Values{}
	params.Set("query", title)

	var response searchResponse
	if err := c.get(ctx, "/search/"+searchType, params, &response); err != nil {
		return nil, err
	}
	if len(response.Results) == 0 {
		c.cache.Set(cacheKey, (*Title)(nil), gocache.DefaultExpiration)
		return nil, nil
	}

	first := response.Results[0]
	match := &Title{
		ID:          strconv.Itoa(first.ID),
		ReleaseDate: first.ReleaseDate,
	}
	if match.ReleaseDate == "" {
		match.ReleaseDate = first.FirstAirDate
	}
	for _, id := range first.GenreIDs {
		if name, ok := genreNames[id]; ok {
			match.Genres = append(match.Genres, name)
		}
	}

	c.cache.Set(cacheKey, match, gocache.DefaultExpiration)
	return match, nil
}

// Details fetches runtime and IMDb id for a search match. Series need a
// second call because external ids live on a separate endpoint.
func (c *Client) Details(ctx context.Context, id string, kind models.Kind) (*Details, error) {
	if kind == models.KindSeries {
		return c.seriesDetails(ctx, id)
	}

	var response struct {
		Runtime int    `json:"runtime"`
		IMDBID  string `json:"imdb_id"`
	}
	if err := c.get(ctx, "/movie/"+id, nil, &response); err != nil {
		return nil, err
	}

	details := &Details{ExternalID: response.IMDBID}
	if response.Runtime > 0 {
		details.Runtime = strconv.Itoa(response.Runtime)
	}
	return details, nil
}

func (c *Client) seriesDetails(ctx context.Context, id string) (*Details, error) {
	var response struct {
		EpisodeRunTime []int `json:"episode_run_time"`
	}
	if err := c.get(ctx, "/tv/"+id, nil, &response); err != nil {
		return nil, err
	}

	var external struct {
		IMDBID string `json:"imdb_id"`
	}
	if err := c.get(ctx, "/tv/"+id+"/external_ids", nil, &external); err != nil {
		return nil, err
	}

	details := &Details{ExternalID: external.IMDBID}
	if len(response.EpisodeRunTime) > 0 && response.EpisodeRunTime[0] > 0 {
		details.Runtime = strconv.Itoa(response.EpisodeRunTime[0])
	}
	return details, nil
}

// FindSeriesByExternalID resolves an IMDb id to the provider's series
// id. Returns "" when the id is unknown to the provider.
func (c *Client) FindSeriesByExternalID(ctx context.Context, externalID string) (string, error) {
	cacheKey := "find:" + externalID
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(string), nil
	}

	params := url.Values{}
	params.Set("external_source", "imdb_id")

	var response struct {
		TVResults []struct {
			ID int `json:"id"`
		} `json:"tv_results"`
	}
	if err := c.get(ctx, "/find/"+externalID, params, &response); err != nil {
		return "", err
	}
	if len(response.TVResults) == 0 {
		c.cache.Set(cacheKey, "", gocache.DefaultExpiration)
		return "", nil
	}

	id := strconv.Itoa(response.TVResults[0].ID)
	c.cache.Set(cacheKey, id, gocache.DefaultExpiration)
	return id, nil
}

// SeasonEpisodeCount returns the number of episodes in one season of a
// series, or 0 when the season is unknown
func (c *Client) SeasonEpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	var response struct {
		Episodes []struct {
			EpisodeNumber int `json:"episode_number"`
		} `json:"episodes"`
	}
	err := c.get(ctx, "/tv/"+seriesID+"/season/"+strconv.Itoa(season), nil, &response)
	if err != nil {
		return 0, err
	}
	return len(response.Episodes), nil
}
