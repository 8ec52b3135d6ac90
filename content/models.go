// Package content defines the gallery item model and the paged query
// that drives discovery.
package content

import (
	"strings"
	"time"

	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Item is a single gallery entry. The catalog service owns it; the
// engine and the client treat it as a value refreshed by
// reconciliation.
type Item struct {
	types.Entity

	ID       id.ItemID `json:"id"`
	OwnerID  id.UserID `json:"owner_id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url"`

	// Aggregate counters, never negative.
	ViewCount int64 `json:"view_count"`
	LikeCount int64 `json:"like_count"`

	// Per-viewer flags. Meaningful only when the item was loaded for a
	// known requester; false otherwise.
	ViewedByRequester bool `json:"viewed_by_requester"`
	LikedByRequester  bool `json:"liked_by_requester"`

	// Free-form tag attributes.
	Expression   string      `json:"expression,omitempty"`
	Style        string      `json:"style,omitempty"`
	Makeup       string      `json:"makeup,omitempty"`
	Accessories  string      `json:"accessories,omitempty"`
	ProductsUsed []id.ItemID `json:"products_used,omitempty"`
}

// Clone returns a deep copy. Stores hand out clones so callers can
// mutate without aliasing store state.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	if len(i.ProductsUsed) > 0 {
		cp.ProductsUsed = append([]id.ItemID(nil), i.ProductsUsed...)
	}
	return &cp
}

// MatchesSearch reports whether the item's name contains term as a
// case-insensitive substring. An empty term matches everything.
func (i *Item) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Name), strings.ToLower(term))
}

// SortKey selects the field a feed ordering is derived from.
type SortKey string

const (
	SortByRecency   SortKey = "created_at"
	SortByViewCount SortKey = "views"
	SortByLikeCount SortKey = "likes"
)

// Valid reports whether the key is one of the supported orderings.
func (k SortKey) Valid() bool {
	switch k {
	case SortByRecency, SortByViewCount, SortByLikeCount:
		return true
	}
	return false
}

// ValueOf returns the item's value under this sort key. Recency is
// expressed as nanoseconds since epoch so all keys compare as int64.
func (k SortKey) ValueOf(item *Item) int64 {
	switch k {
	case SortByViewCount:
		return item.ViewCount
	case SortByLikeCount:
		return item.LikeCount
	default:
		return item.CreatedAt.UnixNano()
	}
}

// SortDirection orders a sort ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Query describes one page request against the catalog.
type Query struct {
	Page       int           `json:"page"`      // 1-based
	PageSize   int           `json:"page_size"` // clamped, default 20
	SearchTerm string        `json:"search_term,omitempty"`
	SortBy     SortKey       `json:"sort_by"`
	SortDir    SortDirection `json:"sort_dir"`
	OwnerID    id.UserID     `json:"owner_id,omitempty"` // optional profile filter
}

// Default and maximum page sizes, matching the gallery's fetch window.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize returns a copy with page, size, sort key and direction
// clamped to valid values.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if !q.SortBy.Valid() {
		q.SortBy = SortByRecency
	}
	if q.SortDir != Ascending {
		q.SortDir = Descending
	}
	return q
}

// Offset returns the number of items to skip for this page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// SameBase reports whether two queries share the same server-side base
// ordering. Queries with the same search, sort and owner differ only by
// page and can be accumulated; otherwise the client must reset to page 1.
func (q Query) SameBase(other Query) bool {
	return q.SearchTerm == other.SearchTerm &&
		q.SortBy == other.SortBy &&
		q.SortDir == other.SortDir &&
		q.OwnerID.String() == other.OwnerID.String()
}

// Less compares two items under the query's sort key and direction.
// Equal keys report false both ways; callers break ties by insertion
// order to keep re-sorts stable.
func (q Query) Less(a, b *Item) bool {
	av, bv := q.SortBy.ValueOf(a), q.SortBy.ValueOf(b)
	if q.SortDir == Ascending {
		return av < bv
	}
	return av > bv
}

// Mutation is a partial in-place update of one item: counter deltas
// and optional flag changes. Zero-value fields leave the item alone.
type Mutation struct {
	ViewCountDelta int64
	LikeCountDelta int64
	SetViewed      *bool
	SetLiked       *bool
}

// Apply updates the item in place, clamping counters at zero.
func (m Mutation) Apply(item *Item) {
	item.ViewCount += m.ViewCountDelta
	if item.ViewCount < 0 {
		item.ViewCount = 0
	}
	item.LikeCount += m.LikeCountDelta
	if item.LikeCount < 0 {
		item.LikeCount = 0
	}
	if m.SetViewed != nil {
		item.ViewedByRequester = *m.SetViewed
	}
	if m.SetLiked != nil {
		item.LikedByRequester = *m.SetLiked
	}
	item.UpdatedAt = time.Now().UTC()
}

// Touches reports whether the mutation changes the value the given
// sort key orders by. Patching an item only reorders the display
// sequence when this is true.
func (m Mutation) Touches(key SortKey) bool {
	switch key {
	case SortByViewCount:
		return m.ViewCountDelta != 0
	case SortByLikeCount:
		return m.LikeCountDelta != 0
	default:
		return false // creation time never changes
	}
}

// Bool is a helper for Mutation flag pointers.
func Bool(v bool) *bool { return &v }
