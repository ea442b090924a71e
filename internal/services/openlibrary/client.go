// Package openlibrary is the book metadata provider client. The API is
// keyless.
package openlibrary

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
)

const defaultBaseURL = "https://openlibrary.org"

// maxSubjects caps how many subjects are carried over as genres
const maxSubjects = 5

// Book is a search match for a book title
type Book struct {
	Subjects       []string
	FirstPublished string
}

// Client handles communication with the Open Library API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new Open Library client
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		cache:      gocache.New(10*time.Minute, 30*time.Minute),
		logger:     logger,
	}
}

// Search finds the best match for a book title. A nil result means the
// provider has nothing usable.
func (c *Client) Search(ctx context.Context, title string) (*Book, error) {
	cacheKey := "book:" + title
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*Book), nil
	}

	params := url.Values{}
	params.Set("title", title)
	params.Set("limit", "5")
	fullURL := c.baseURL + "/search.json?" + params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.logger.WithField("title", title).Debug("Making Open Library API request")

	var response struct {
		Docs []struct {
			FirstPublishYear int      `json:"first_publish_year"`
			Subject          []string `json:"subject"`
		} `json:"docs"`
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

	if len(response.Docs) == 0 {
		c.cache.Set(cacheKey, (*Book)(nil), gocache.DefaultExpiration)
		return nil, nil
	}

	first := response.Docs[0]
	book := &Book{}
	if first.FirstPublishYear > 0 {
		book.FirstPublished = strconv.Itoa(first.FirstPublishYear)
	}
	subjects := first.Subject
	if len(subjects) > maxSubjects {
		subjects = subjects[:maxSubjects]
	}
	book.Subjects = subjects

	if book.FirstPublished == "" && len(book.Subjects) == 0 {
		c.cache.Set(cacheKey, (*Book)(nil), gocache.DefaultExpiration)
		return nil, nil
	}

	c.cache.Set(cacheKey, book, gocache.DefaultExpiration)
	return book, nil
}
