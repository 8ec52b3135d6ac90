package content

import (
	"testing"
	"time"

	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

func itemNamed(name string, views, likes int64) *Item {
	return &Item{
		Entity:    types.NewEntity(),
		ID:        id.NewItemID(),
		Name:      name,
		ViewCount: views,
		LikeCount: likes,
	}
}

func TestMatchesSearch(t *testing.T) {
	item := itemNamed("Alice-SummerGlow", 0, 0)

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"alice", true},
		{"SUMMER", true},
		{"glow", true},
		{"bob", false},
	}

	for _, tt := range tests {
		t.Run("term="+tt.term, func(t *testing.T) {
			if got := item.MatchesSearch(tt.term); got != tt.want {
				t.Errorf("MatchesSearch(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Query
		want Query
	}{
		{
			"zero value",
			Query{},
			Query{Page: 1, PageSize: DefaultPageSize, SortBy: SortByRecency, SortDir: Descending},
		},
		{
			"negative page",
			Query{Page: -3, PageSize: 10, SortBy: SortByViewCount, SortDir: Ascending},
			Query{Page: 1, PageSize: 10, SortBy: SortByViewCount, SortDir: Ascending},
		},
		{
			"oversized page size",
			Query{Page: 2, PageSize: 5000, SortBy: SortByLikeCount, SortDir: Descending},
			Query{Page: 2, PageSize: MaxPageSize, SortBy: SortByLikeCount, SortDir: Descending},
		},
		{
			"unknown sort key",
			Query{Page: 1, PageSize: 20, SortBy: "popularity"},
			Query{Page: 1, PageSize: 20, SortBy: SortByRecency, SortDir: Descending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQueryOffset(t *testing.T) {
	q := Query{Page: 3, PageSize: 20}.Normalize()
	if got := q.Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
}

func TestQuerySameBase(t *testing.T) {
	base := Query{Page: 1, SearchTerm: "a", SortBy: SortByViewCount, SortDir: Descending}

	next := base
	next.Page = 7
	if !base.SameBase(next) {
		t.Error("page change must keep the same base")
	}

	search := base
	search.SearchTerm = "b"
	if base.SameBase(search) {
		t.Error("search change must produce a new base")
	}

	sorted := base
	sorted.SortBy = SortByRecency
	if base.SameBase(sorted) {
		t.Error("sort change must produce a new base")
	}
}

func TestQueryLess(t *testing.T) {
	hot := itemNamed("hot", 100, 5)
	cold := itemNamed("cold", 10, 50)

	desc := Query{SortBy: SortByViewCount, SortDir: Descending}
	if !desc.Less(hot, cold) {
		t.Error("descending views: hot should sort before cold")
	}

	asc := Query{SortBy: SortByViewCount, SortDir: Ascending}
	if !asc.Less(cold, hot) {
		t.Error("ascending views: cold should sort before hot")
	}

	likes := Query{SortBy: SortByLikeCount, SortDir: Descending}
	if !likes.Less(cold, hot) {
		t.Error("descending likes: cold should sort before hot")
	}
}

func TestMutationApply(t *testing.T) {
	item := itemNamed("x", 10, 1)

	Mutation{ViewCountDelta: 1, SetViewed: Bool(true)}.Apply(item)
	if item.ViewCount != 11 || !item.ViewedByRequester {
		t.Errorf("after view patch: views=%d viewed=%v", item.ViewCount, item.ViewedByRequester)
	}

	// Counters clamp at zero.
	Mutation{LikeCountDelta: -5}.Apply(item)
	if item.LikeCount != 0 {
		t.Errorf("like count should clamp at 0, got %d", item.LikeCount)
	}
}

func TestMutationTouches(t *testing.T) {
	tests := []struct {
		name string
		m    Mutation
		key  SortKey
		want bool
	}{
		{"view delta touches views", Mutation{ViewCountDelta: 1}, SortByViewCount, true},
		{"view delta ignores likes", Mutation{ViewCountDelta: 1}, SortByLikeCount, false},
		{"like delta touches likes", Mutation{LikeCountDelta: -1}, SortByLikeCount, true},
		{"flags never touch recency", Mutation{SetLiked: Bool(true)}, SortByRecency, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Touches(tt.key); got != tt.want {
				t.Errorf("Touches(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	orig := itemNamed("original", 1, 1)
	orig.ProductsUsed = []id.ItemID{id.NewItemID()}
	orig.CreatedAt = time.Now().UTC()

	cp := orig.Clone()
	cp.Name = "copy"
	cp.ProductsUsed[0] = id.NewItemID()

	if orig.Name != "original" {
		t.Error("clone aliased the name field")
	}
	if orig.ProductsUsed[0] == cp.ProductsUsed[0] {
		t.Error("clone aliased the products slice")
	}
}
