package rawg

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := NewClient("test-key", logger)
	c.baseURL = server.URL
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestSearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("expected api key on request")
		}
		if r.URL.Query().Get("search") != "Hades" {
			t.Errorf("unexpected search %q", r.URL.Query().Get("search"))
		}
		io.WriteString(w, `{"results":[
			{"released":"2020-09-17","genres":[{"name":"Action"},{"name":"Roguelike"}]},
			{"released":"2024-05-06","genres":[{"name":"Action"}]}
		]}`)
	})

	game, err := c.Search(context.Background(), "Hades")
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if game == nil {
		t.Fatal("expected a match")
	}
	if game.Released != "2020-09-17" {
		t.Errorf("unexpected release date %q", game.Released)
	}
	if !reflect.DeepEqual(game.Genres, []string{"Action", "Roguelike"}) {
		t.Errorf("unexpected genres: %v", game.Genres)
	}
}

func TestSearchNoResults(t *testing.T) {
	requests := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		io.WriteString(w, `{"results":[]}`)
	})

	game, err := c.Search(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if game != nil {
		t.Errorf("expected nil for no results, got %+v", game)
	}

	if _, err := c.Search(context.Background(), "zzzz"); err != nil {
		t.Fatalf("searching again: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected cached miss, got %d requests", requests)
	}
}

func TestSearchTerminalStatus(t *testing.T) {
	requests := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	})

	if _, err := c.Search(context.Background(), "Hades"); err == nil {
		t.Fatal("expected an error")
	}
	if requests != 1 {
		t.Errorf("expected a single request for a 403, got %d", requests)
	}
}
