package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/feed"
	"github.com/jesssevilleja/facegate/id"
)

// pagedSource serves deterministic pages and lets a test hold a page
// back until released, to exercise out-of-order completion.
type pagedSource struct {
	mu       sync.Mutex
	pages    map[int][]*content.Item
	holds    map[int]chan struct{}
	requests []content.Query
	fail     map[int]error
}

func newPagedSource() *pagedSource {
	return &pagedSource{
		pages: make(map[int][]*content.Item),
		holds: make(map[int]chan struct{}),
		fail:  make(map[int]error),
	}
}

func (s *pagedSource) put(page int, names ...string) {
	items := make([]*content.Item, len(names))
	for i, name := range names {
		items[i] = &content.Item{ID: id.New(id.PrefixItem), Name: name}
	}
	s.mu.Lock()
	s.pages[page] = items
	s.mu.Unlock()
}

func (s *pagedSource) hold(page int) chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[page] = ch
	s.mu.Unlock()
	return ch
}

func (s *pagedSource) FetchPage(ctx context.Context, q content.Query) ([]*content.Item, error) {
	s.mu.Lock()
	s.requests = append(s.requests, q)
	hold := s.holds[q.Page]
	err := s.fail[q.Page]
	items := s.pages[q.Page]
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func feedNames(c *feed.Cache) string {
	items := c.Items()
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return fmt.Sprint(names)
}

func TestControllerSequentialPaging(t *testing.T) {
	src := newPagedSource()
	src.put(1, "a", "b")
	src.put(2, "c")
	src.put(3) // empty: feed ends here

	cache := feed.NewCache()
	ctrl := NewController(src, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := ctrl.RequestNextPage(ctx); err != nil {
			t.Fatalf("RequestNextPage() #%d error = %v", i+1, err)
		}
		waitFor(t, func() bool { return ctrl.State() != Fetching })
	}

	if got := feedNames(cache); got != fmt.Sprint([]string{"c", "b", "a"}) && got != fmt.Sprint([]string{"a", "b", "c"}) {
		// Recency sort over zero timestamps keeps arrival order.
		t.Errorf("feed = %v", got)
	}
	if cache.Size() != 3 {
		t.Errorf("Size() = %d, want 3", cache.Size())
	}
	if ctrl.State() != Exhausted {
		t.Errorf("State() = %v, want Exhausted", ctrl.State())
	}
	if err := ctrl.RequestNextPage(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("RequestNextPage() after exhaustion = %v, want ErrExhausted", err)
	}
}

func TestControllerRejectsConcurrentFetch(t *testing.T) {
	src := newPagedSource()
	src.put(1, "a")
	release := src.hold(1)

	ctrl := NewController(src, feed.NewCache())
	ctx := context.Background()

	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatalf("RequestNextPage() error = %v", err)
	}
	if err := ctrl.RequestNextPage(ctx); !errors.Is(err, ErrFetchInProgress) {
		t.Errorf("second RequestNextPage() = %v, want ErrFetchInProgress", err)
	}

	close(release)
	waitFor(t, func() bool { return ctrl.State() == Idle })

	// The pipeline is free again.
	src.put(2, "b")
	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Errorf("RequestNextPage() after completion = %v", err)
	}
}

func TestControllerOutOfOrderApplication(t *testing.T) {
	src := newPagedSource()
	src.put(1, "a")
	src.put(2, "b")
	release1 := src.hold(1)

	cache := feed.NewCache()
	ctrl := NewController(src, cache, WithPipelineDepth(2))
	ctx := context.Background()

	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}

	// Page 2 completes first but must wait for page 1.
	waitFor(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.requests) == 2
	})
	time.Sleep(10 * time.Millisecond)
	if cache.Size() != 0 {
		t.Fatalf("Size() = %d before page 1 arrived, want 0", cache.Size())
	}

	close(release1)
	waitFor(t, func() bool { return cache.Size() == 2 })

	items := cache.Items()
	if items[0].Name == items[1].Name {
		t.Fatal("duplicate items applied")
	}
}

func TestControllerStaleResponseDropped(t *testing.T) {
	src := newPagedSource()
	src.put(1, "old")
	release := src.hold(1)

	cache := feed.NewCache()
	ctrl := NewController(src, cache)
	ctx := context.Background()

	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}

	// Query change invalidates the in-flight fetch.
	ctrl.SetSearchTerm("new")
	close(release)

	// The next fetch starts from page 1 with the new term.
	src.put(1, "new match")
	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatalf("RequestNextPage() after query change = %v", err)
	}
	waitFor(t, func() bool { return ctrl.State() == Idle && cache.Size() == 1 })

	if cache.Size() != 1 {
		t.Fatalf("Size() = %d, want 1: stale page leaked in", cache.Size())
	}
	if got := feedNames(cache); got != fmt.Sprint([]string{"new match"}) {
		t.Errorf("feed = %s, want [new match]", got)
	}

	src.mu.Lock()
	last := src.requests[len(src.requests)-1]
	src.mu.Unlock()
	if last.SearchTerm != "new" || last.Page != 1 {
		t.Errorf("last request = page %d term %q, want page 1 term \"new\"", last.Page, last.SearchTerm)
	}
}

func TestControllerQueryChangeDoesNotDropFreshPages(t *testing.T) {
	// Query changes race against page requests. A page fetched for the
	// current query must never be wiped by the reset belonging to the
	// change that created that query.
	source := SourceFunc(func(ctx context.Context, q content.Query) ([]*content.Item, error) {
		if q.Page > 1 {
			return nil, nil
		}
		return []*content.Item{{ID: id.New(id.PrefixItem), Name: q.SearchTerm}}, nil
	})

	cache := feed.NewCache()
	ctrl := NewController(source, cache)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ctrl.SetSearchTerm(fmt.Sprintf("term-%d", i%2))
		}
		ctrl.SetSearchTerm("final")
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 400; i++ {
			_ = ctrl.RequestNextPage(ctx)
		}
	}()
	wg.Wait()

	// Settle in-flight fetches, then drive the final query to the end.
	waitFor(t, func() bool { return ctrl.State() != Fetching })
	for {
		err := ctrl.RequestNextPage(ctx)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil && !errors.Is(err, ErrFetchInProgress) {
			t.Fatal(err)
		}
		waitFor(t, func() bool { return ctrl.State() != Fetching })
	}

	if got := feedNames(cache); got != fmt.Sprint([]string{"final"}) {
		t.Errorf("feed after settling = %s, want [final]", got)
	}
}

func TestControllerFetchErrorKeepsPage(t *testing.T) {
	src := newPagedSource()
	src.fail[1] = errors.New("network down")

	cache := feed.NewCache()
	ctrl := NewController(src, cache)
	ctx := context.Background()

	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return ctrl.State() == Idle })

	if cache.Size() != 0 {
		t.Errorf("Size() = %d after failed fetch, want 0", cache.Size())
	}

	// Retry requests the same page.
	src.mu.Lock()
	delete(src.fail, 1)
	src.mu.Unlock()
	src.put(1, "a")

	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return cache.Size() == 1 })

	src.mu.Lock()
	defer src.mu.Unlock()
	if got := src.requests[1].Page; got != 1 {
		t.Errorf("retried page = %d, want 1", got)
	}
}

func TestControllerSetSortRestarts(t *testing.T) {
	src := newPagedSource()
	src.put(1, "a")

	cache := feed.NewCache()
	ctrl := NewController(src, cache)
	ctx := context.Background()

	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return cache.Size() == 1 })

	ctrl.SetSort(content.SortByLikeCount, content.Ascending)
	if cache.Size() != 0 {
		t.Error("cache not reset on sort change")
	}
	if q := ctrl.Query(); q.SortBy != content.SortByLikeCount {
		t.Errorf("SortBy = %v, want likes", q.SortBy)
	}

	// Unchanged sort is a no-op: paging state survives.
	src.put(1, "b")
	if err := ctrl.RequestNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return cache.Size() == 1 })
	ctrl.SetSort(content.SortByLikeCount, content.Ascending)
	if cache.Size() != 1 {
		t.Error("no-op sort change reset the cache")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Fetching, "fetching"},
		{Exhausted, "exhausted"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
