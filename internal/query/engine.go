// Package query implements the paginated media query engine: owner-scoped,
// filtered, sorted fetches with cursor-based "load more" semantics.
//
// Ordering is sort key descending with record id ascending as the tie-break
// (the store's insertion order). Cursor-after pagination with a non-unique
// sort key such as rating can still skip or duplicate records if sort values
// change between page fetches; the stable tie-break only guarantees
// consistency while the underlying data is unchanged.
package query

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/models"
)

// Params is the filter/sort tuple of one query session
type Params struct {
	OwnerID  string
	Kind     models.KindFilter
	Watched  models.WatchedFilter
	Sort     models.SortKey
	PageSize int
	// Unpaged fetches everything in one shot (search-across-everything
	// use cases); cursor tracking and NextPage are disabled.
	Unpaged bool
}

// Engine fetches pages of media records for one filter/sort configuration,
// accumulating results across NextPage calls
type Engine struct {
	db     *models.Database
	logger *logrus.Logger

	mu       sync.Mutex
	params   Params
	records  []*models.Media
	cursor   *Cursor
	hasMore  bool
	inFlight bool
}

// NewEngine creates a query engine
func NewEngine(db *models.Database, logger *logrus.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Resume creates an engine primed to continue a previous query session
// from a decoded page token. The next NextPage call fetches the page
// strictly after the cursor.
func Resume(db *models.Database, logger *logrus.Logger, p Params, cursor *Cursor) *Engine {
	e := NewEngine(db, logger)
	e.params = p
	e.cursor = cursor
	e.hasMore = cursor != nil
	return e
}

// FirstPage discards any accumulated state and fetches the first page for
// the given filter/sort tuple. An empty owner id yields an empty page with
// no error: "no authenticated owner" is not a failure. Fetch errors are
// logged and resolve to an empty page.
func (e *Engine) FirstPage(p Params) []*models.Media {
	e.mu.Lock()
	e.params = p
	e.records = nil
	e.cursor = nil
	e.hasMore = false
	e.mu.Unlock()

	if p.OwnerID == "" {
		return nil
	}

	page := e.fetch(nil)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = page
	if !p.Unpaged && len(page) > 0 {
		e.cursor = cursorFrom(p.Sort, page[len(page)-1])
	}
	e.hasMore = !p.Unpaged && p.PageSize > 0 && len(page) == p.PageSize
	return e.records
}

// NextPage fetches up to one more page after the current cursor and
// appends it to the accumulated results, which it returns. It is a no-op
// when there is nothing more to load, when a fetch is already in flight,
// when the owner id is absent, or in unpaged mode.
func (e *Engine) NextPage() []*models.Media {
	e.mu.Lock()
	if !e.hasMore || e.inFlight || e.params.OwnerID == "" || e.params.Unpaged {
		records := e.records
		e.mu.Unlock()
		return records
	}
	e.inFlight = true
	cursor := e.cursor
	e.mu.Unlock()

	page := e.fetch(cursor)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	e.records = append(e.records, page...)
	if len(page) > 0 {
		e.cursor = cursorFrom(e.params.Sort, page[len(page)-1])
	}
	e.hasMore = len(page) == e.params.PageSize
	return e.records
}

// Refetch discards the accumulated records and cursor and re-runs the
// first page with the current filter/sort tuple. Callers use it after
// mutating a record so the visible page reflects the mutation; it is a
// full reset, not an in-place patch.
func (e *Engine) Refetch() []*models.Media {
	e.mu.Lock()
	p := e.params
	e.mu.Unlock()
	return e.FirstPage(p)
}

// Records returns the accumulated result set
func (e *Engine) Records() []*models.Media {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records
}

// HasMore reports whether another page may be available
func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// Cursor returns the cursor at the end of the accumulated results, or nil
func (e *Engine) Cursor() *Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

func (e *Engine) fetch(cursor *Cursor) []*models.Media {
	e.mu.Lock()
	p := e.params
	e.mu.Unlock()

	q := models.MediaQuery{
		OwnerID: p.OwnerID,
		Kind:    p.Kind,
		Watched: p.Watched,
		Sort:    p.Sort,
	}
	if !p.Unpaged {
		q.Limit = p.PageSize
	}
	if cursor != nil {
		q.After = cursor.after()
	}

	medias, err := e.db.QueryMedia(q)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"owner": p.OwnerID,
			"sort":  p.Sort,
		}).Error("Media query failed")
		return nil
	}
	return medias
}
