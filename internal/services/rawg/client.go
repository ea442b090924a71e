// Package rawg is the game metadata provider client.
package rawg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.rawg.io/api"

// Game is a search match for a game title
type Game struct {
	Genres   []string
	Released string
}

// Client handles communication with the RAWG API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new RAWG client
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

// Search finds the best match for a game title. A nil result means the
// provider has nothing usable.
func (c *Client) Search(ctx context.Context, title string) (*Game, error) {
	cacheKey := "game:" + title
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*Game), nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("search", title)
	params.Set("page_size", "5")
	fullURL := c.baseURL + "/games?" + params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.logger.WithField("title", title).Debug("Making RAWG API request")

	var response struct {
		Results []struct {
			Released string `json:"released"`
			Genres   []struct {
				Name string `json:"name"`
			} `json:"genres"`
		} `json:"results"`
	}

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

		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx))
	if err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		c.cache.Set(cacheKey, (*Game)(nil), gocache.DefaultExpiration)
		return nil, nil
	}

	first := response.Results[0]
	game := &Game{Released: first.Released}
	for _, g := range first.Genres {
		game.Genres = append(game.Genres, g.Name)
	}

	c.cache.Set(cacheKey, game, gocache.DefaultExpiration)
	return game, nil
}
