// Package feed maintains a client-side accumulation of fetched items
// with memoized filtering and sorting for display.
package feed

import (
	"sort"
	"sync"

	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/id"
)

// Cache accumulates pages of items as they arrive and derives a
// display sequence from the active search term and sort order. The
// derived sequence is memoized and only recomputed when the inputs
// change.
type Cache struct {
	mu sync.Mutex

	// items holds every accepted item in arrival order. index maps an
	// item id to its position in items for O(1) dedupe and patching.
	items []*content.Item
	index map[id.ItemID]int

	searchTerm string
	sortBy     content.SortKey
	sortDir    content.SortDirection

	endOfData bool

	// Memoized display sequence.
	derived []*content.Item
	dirty   bool
}

// NewCache creates an empty feed cache sorted by recency, newest first.
func NewCache() *Cache {
	return &Cache{
		index:   make(map[id.ItemID]int),
		sortBy:  content.SortByRecency,
		sortDir: content.Descending,
		dirty:   true,
	}
}

// AppendPage merges a fetched page into the accumulation. Items whose
// id is already present are skipped so overlapping pages never create
// duplicates. An empty page marks the feed exhausted. Returns the
// number of items actually added.
func (c *Cache) AppendPage(page []*content.Item) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(page) == 0 {
		c.endOfData = true
		return 0
	}

	added := 0
	for _, it := range page {
		if it == nil {
			continue
		}
		if _, exists := c.index[it.ID]; exists {
			continue
		}
		c.index[it.ID] = len(c.items)
		c.items = append(c.items, it.Clone())
		added++
	}
	if added > 0 {
		c.dirty = true
	}
	return added
}

// SetFilter changes the active search term. The accumulation is
// untouched; only the display sequence changes.
func (c *Cache) SetFilter(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if term == c.searchTerm {
		return
	}
	c.searchTerm = term
	c.dirty = true
}

// SetSort changes the active sort key and direction.
func (c *Cache) SetSort(key content.SortKey, dir content.SortDirection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !key.Valid() {
		key = content.SortByRecency
	}
	if key == c.sortBy && dir == c.sortDir {
		return
	}
	c.sortBy = key
	c.sortDir = dir
	c.dirty = true
}

// PatchItem applies a mutation to a single cached item. Unknown ids
// are a no-op. The display sequence is recomputed only when the
// mutation touches the active sort key or the item's visibility under
// the active filter could change.
func (c *Cache) PatchItem(itemID id.ItemID, m content.Mutation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[itemID]
	if !ok {
		return false
	}
	m.Apply(c.items[pos])
	if m.Touches(c.sortBy) {
		c.dirty = true
	}
	return true
}

// Get returns the cached item with the given id, or nil.
func (c *Cache) Get(itemID id.ItemID) *content.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[itemID]
	if !ok {
		return nil
	}
	return c.items[pos].Clone()
}

// Items returns the display sequence: the accumulation filtered by the
// active search term and ordered by the active sort. Ties preserve
// arrival order.
func (c *Cache) Items() []*content.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recompute()
	out := make([]*content.Item, len(c.derived))
	for i, it := range c.derived {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of items in the current display sequence.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recompute()
	return len(c.derived)
}

// Size returns the total number of accumulated items, ignoring the
// active filter.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// EndOfData reports whether an empty page has been observed.
func (c *Cache) EndOfData() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endOfData
}

// Reset discards the accumulation and derived state. The active filter
// and sort survive a reset.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.index = make(map[id.ItemID]int)
	c.derived = nil
	c.endOfData = false
	c.dirty = true
}

// recompute rebuilds the derived sequence if inputs changed since the
// last call. Caller must hold c.mu.
func (c *Cache) recompute() {
	if !c.dirty {
		return
	}

	derived := make([]*content.Item, 0, len(c.items))
	for _, it := range c.items {
		if c.searchTerm != "" && !it.MatchesSearch(c.searchTerm) {
			continue
		}
		derived = append(derived, it)
	}

	key, dir := c.sortBy, c.sortDir
	sort.SliceStable(derived, func(i, j int) bool {
		a, b := key.ValueOf(derived[i]), key.ValueOf(derived[j])
		if a == b {
			return false
		}
		if dir == content.Ascending {
			return a < b
		}
		return a > b
	})

	c.derived = derived
	c.dirty = false
}
