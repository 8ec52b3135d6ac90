// Package discovery drives incremental feed loading: it issues page
// fetches against a source, drops responses made stale by a query
// change, and applies completed pages to the feed cache in page order
// even when fetches complete out of order.
package discovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/feed"
)

// Source fetches one page of items for a query. A nil or empty result
// with a nil error means the feed is exhausted.
type Source interface {
	FetchPage(ctx context.Context, q content.Query) ([]*content.Item, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, q content.Query) ([]*content.Item, error)

// FetchPage calls f.
func (f SourceFunc) FetchPage(ctx context.Context, q content.Query) ([]*content.Item, error) {
	return f(ctx, q)
}

// State describes what the controller is doing.
type State int

const (
	// Idle means no fetch is running and more pages may remain.
	Idle State = iota
	// Fetching means at least one page fetch is in flight.
	Fetching
	// Exhausted means an empty page was applied; further requests are
	// rejected until the query changes.
	Exhausted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Controller owns the paging state machine for one feed.
type Controller struct {
	source Source
	cache  *feed.Cache
	logger *slog.Logger

	mu         sync.Mutex
	query      content.Query
	state      State
	generation uint64
	nextPage   int
	nextApply  int
	pending    map[int][]*content.Item
	inFlight   int
	depth      int

	// updates receives a signal after every applied page, failed
	// fetch, or query change. Buffered so a slow reader never blocks
	// the controller.
	updates chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithPipelineDepth allows up to n page fetches in flight at once.
// Completed pages are still applied in page order. Depth below 1 is
// treated as 1.
func WithPipelineDepth(n int) Option {
	return func(c *Controller) {
		if n < 1 {
			n = 1
		}
		c.depth = n
	}
}

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPageSize sets the page size requested from the source.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		c.query.PageSize = n
	}
}

// NewController creates a controller over the given source and cache.
func NewController(source Source, cache *feed.Cache, opts ...Option) *Controller {
	c := &Controller{
		source:    source,
		cache:     cache,
		logger:    slog.Default(),
		state:     Idle,
		nextPage:  1,
		nextApply: 1,
		pending:   make(map[int][]*content.Item),
		depth:     1,
		updates:   make(chan struct{}, 1),
		query: content.Query{
			PageSize: content.DefaultPageSize,
			SortBy:   content.SortByRecency,
			SortDir:  content.Descending,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.query = c.query.Normalize()
	return c
}

// Cache returns the feed cache the controller applies pages into.
func (c *Controller) Cache() *feed.Cache { return c.cache }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates returns a channel that receives a signal whenever the feed
// changed or a fetch settled.
func (c *Controller) Updates() <-chan struct{} { return c.updates }

// RequestNextPage starts a fetch for the next page. It returns
// ErrExhausted when the feed has no more pages for the current query
// and ErrFetchInProgress when the pipeline is already full. The fetch
// itself runs in the background; completion is observable via Updates.
func (c *Controller) RequestNextPage(ctx context.Context) error {
	c.mu.Lock()

	if c.state == Exhausted {
		c.mu.Unlock()
		return ErrExhausted
	}
	if c.inFlight >= c.depth {
		c.mu.Unlock()
		return ErrFetchInProgress
	}

	gen := c.generation
	q := c.query
	q.Page = c.nextPage
	c.nextPage++
	c.inFlight++
	c.state = Fetching
	c.mu.Unlock()

	go func() {
		items, err := c.source.FetchPage(ctx, q)
		c.complete(gen, q.Page, items, err)
	}()
	return nil
}

// SetSearchTerm changes the search term and restarts paging from the
// first page. Responses from fetches issued before the change are
// dropped when they arrive.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	if c.query.SearchTerm == term {
		c.mu.Unlock()
		return
	}
	c.query.SearchTerm = term
	c.restartLocked()
	// Reset under the lock: a fetch issued for the new generation must
	// not land in the cache before the old accumulation is cleared.
	c.cache.Reset()
	c.cache.SetFilter(term)
	c.mu.Unlock()

	c.notify()
}

// SetSort changes the sort order and restarts paging from the first
// page.
func (c *Controller) SetSort(key content.SortKey, dir content.SortDirection) {
	c.mu.Lock()
	if c.query.SortBy == key && c.query.SortDir == dir {
		c.mu.Unlock()
		return
	}
	c.query.SortBy = key
	c.query.SortDir = dir
	c.query = c.query.Normalize()
	c.restartLocked()
	c.cache.Reset()
	c.cache.SetSort(c.query.SortBy, c.query.SortDir)
	c.mu.Unlock()

	c.notify()
}

// Query returns the current base query.
func (c *Controller) Query() content.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// restartLocked invalidates in-flight fetches and resets paging.
// Caller must hold c.mu.
func (c *Controller) restartLocked() {
	c.generation++
	c.nextPage = 1
	c.nextApply = 1
	c.pending = make(map[int][]*content.Item)
	c.inFlight = 0
	c.state = Idle
}

// complete records a settled fetch. Stale responses, identified by a
// generation older than the current one, are discarded without
// touching any state.
func (c *Controller) complete(gen uint64, page int, items []*content.Item, err error) {
	c.mu.Lock()

	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("dropping stale page", "page", page, "generation", gen)
		return
	}

	c.inFlight--
	if err != nil {
		// The page was never applied, so it stays the next page to
		// request. A retry picks up exactly where this fetch failed.
		if page < c.nextPage {
			c.nextPage = page
		}
		if c.inFlight == 0 {
			c.state = Idle
		}
		c.mu.Unlock()
		c.logger.Warn("page fetch failed", "page", page, "error", err)
		c.notify()
		return
	}

	c.pending[page] = items
	exhausted := c.drainLocked()
	if c.state != Exhausted {
		if c.inFlight > 0 {
			c.state = Fetching
		} else {
			c.state = Idle
		}
	}
	c.mu.Unlock()

	if exhausted {
		c.logger.Debug("feed exhausted", "page", page)
	}
	c.notify()
}

// drainLocked applies buffered pages in page order. Caller must hold
// c.mu. Reports whether the feed became exhausted.
func (c *Controller) drainLocked() bool {
	for {
		items, ok := c.pending[c.nextApply]
		if !ok {
			return false
		}
		delete(c.pending, c.nextApply)
		c.nextApply++
		c.cache.AppendPage(items)
		if len(items) == 0 {
			c.state = Exhausted
			// Later pages of an exhausted feed carry nothing.
			c.pending = make(map[int][]*content.Item)
			return true
		}
	}
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
