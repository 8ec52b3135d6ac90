// Package memory provides an in-memory store implementation, used for
// tests and for embedding without an external database. All state is
// guarded by a single mutex, which also makes the grant path
// trivially transactional.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/ledger"
	"github.com/jesssevilleja/facegate/types"
)

type pairKey struct {
	user id.UserID
	item id.ItemID
}

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex

	wallets   map[id.UserID]*ledger.Wallet
	entries   map[id.UserID][]*ledger.Entry
	entryKeys map[string]struct{}

	items     map[id.ItemID]*content.Item
	itemOrder []id.ItemID

	accesses map[pairKey]time.Time
	likes    map[pairKey]bool

	events    []*engagement.Event
	eventKeys map[string]struct{}

	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		wallets:   make(map[id.UserID]*ledger.Wallet),
		entries:   make(map[id.UserID][]*ledger.Entry),
		entryKeys: make(map[string]struct{}),
		items:     make(map[id.ItemID]*content.Item),
		accesses:  make(map[pairKey]time.Time),
		likes:     make(map[pairKey]bool),
		eventKeys: make(map[string]struct{}),
	}
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(ctx context.Context) error { return s.check() }

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error { return s.check() }

// Close marks the store closed. Further calls fail.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return facegate.ErrStoreClosed
	}
	return nil
}

// ──────────────────────────────────────────────────
// ledger.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateWallet(ctx context.Context, userID id.UserID, initial types.Credits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return facegate.ErrStoreClosed
	}

	if _, exists := s.wallets[userID]; exists {
		return facegate.ErrAlreadyExists
	}
	w := &ledger.Wallet{UserID: userID, Balance: initial}
	w.Entity = types.NewEntity()
	s.wallets[userID] = w
	return nil
}

func (s *Store) GetBalance(ctx context.Context, userID id.UserID) (types.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ZeroCredits, facegate.ErrStoreClosed
	}

	w, ok := s.wallets[userID]
	if !ok {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	return w.Balance, nil
}

func (s *Store) Credit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ZeroCredits, facegate.ErrStoreClosed
	}

	w, ok := s.wallets[userID]
	if !ok {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if entry.IdempotencyKey != "" {
		if _, dup := s.entryKeys[entry.IdempotencyKey]; dup {
			return types.ZeroCredits, facegate.ErrDuplicateEntry
		}
	}

	w.Balance = w.Balance.Add(amount)
	w.Touch()
	s.appendEntry(userID, entry, w.Balance)
	return w.Balance, nil
}

func (s *Store) Debit(ctx context.Context, userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ZeroCredits, facegate.ErrStoreClosed
	}
	return s.debitLocked(userID, amount, entry)
}

// debitLocked applies a conditional debit. Caller must hold s.mu.
func (s *Store) debitLocked(userID id.UserID, amount types.Credits, entry ledger.Entry) (types.Credits, error) {
	w, ok := s.wallets[userID]
	if !ok {
		return types.ZeroCredits, facegate.ErrWalletNotFound
	}
	if entry.IdempotencyKey != "" {
		if _, dup := s.entryKeys[entry.IdempotencyKey]; dup {
			return types.ZeroCredits, facegate.ErrDuplicateEntry
		}
	}
	if !w.Balance.Covers(amount) {
		return types.ZeroCredits, facegate.ErrInsufficientFunds
	}

	w.Balance = w.Balance.Subtract(amount)
	w.Touch()
	s.appendEntry(userID, entry, w.Balance)
	return w.Balance, nil
}

func (s *Store) appendEntry(userID id.UserID, entry ledger.Entry, balance types.Credits) {
	entry.Balance = balance
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.IdempotencyKey != "" {
		s.entryKeys[entry.IdempotencyKey] = struct{}{}
	}
	e := entry
	s.entries[userID] = append(s.entries[userID], &e)
}

func (s *Store) ListEntries(ctx context.Context, userID id.UserID, opts ledger.QueryOpts) ([]*ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, facegate.ErrStoreClosed
	}

	var out []*ledger.Entry
	for _, e := range s.entries[userID] {
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		if !opts.Start.IsZero() && e.CreatedAt.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !e.CreatedAt.Before(opts.End) {
			continue
		}
		c := *e
		out = append(out, &c)
	}

	// Newest first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// content.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateItem(ctx context.Context, item *content.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return facegate.ErrStoreClosed
	}

	if _, exists := s.items[item.ID]; exists {
		return facegate.ErrAlreadyExists
	}
	s.items[item.ID] = item.Clone()
	s.itemOrder = append(s.itemOrder, item.ID)
	return nil
}

func (s *Store) GetItem(ctx context.Context, itemID id.ItemID, requester id.UserID) (*content.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, facegate.ErrStoreClosed
	}

	it, ok := s.items[itemID]
	if !ok {
		return nil, facegate.ErrItemNotFound
	}
	return s.viewFor(it, requester), nil
}

func (s *Store) ListItems(ctx context.Context, q content.Query, requester id.UserID) ([]*content.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, facegate.ErrStoreClosed
	}

	matched := s.matchLocked(q)
	sort.SliceStable(matched, func(i, j int) bool {
		return q.Less(matched[i], matched[j])
	})

	offset := q.Offset()
	if offset >= len(matched) {
		return []*content.Item{}, nil
	}
	end := offset + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*content.Item, 0, end-offset)
	for _, it := range matched[offset:end] {
		out = append(out, s.viewFor(it, requester))
	}
	return out, nil
}

func (s *Store) CountItems(ctx context.Context, q content.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, facegate.ErrStoreClosed
	}
	return int64(len(s.matchLocked(q))), nil
}

// matchLocked returns the stored items matching the query's filters in
// insertion order. Caller must hold s.mu.
func (s *Store) matchLocked(q content.Query) []*content.Item {
	var matched []*content.Item
	for _, itemID := range s.itemOrder {
		it := s.items[itemID]
		if !q.OwnerID.IsNil() && it.OwnerID != q.OwnerID {
			continue
		}
		if q.SearchTerm != "" && !it.MatchesSearch(q.SearchTerm) {
			continue
		}
		matched = append(matched, it)
	}
	return matched
}

// viewFor clones an item and resolves requester-relative flags.
// Caller must hold s.mu.
func (s *Store) viewFor(it *content.Item, requester id.UserID) *content.Item {
	c := it.Clone()
	if requester.IsNil() {
		return c
	}
	key := pairKey{user: requester, item: it.ID}
	_, c.ViewedByRequester = s.accesses[key]
	c.LikedByRequester = s.likes[key]
	return c
}

// ──────────────────────────────────────────────────
// gate.Store
// ──────────────────────────────────────────────────

func (s *Store) HasViewed(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, facegate.ErrStoreClosed
	}

	_, viewed := s.accesses[pairKey{user: userID, item: itemID}]
	return viewed, nil
}

func (s *Store) GrantAccess(ctx context.Context, userID id.UserID, itemID id.ItemID, price types.Credits) (*gate.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, facegate.ErrStoreClosed
	}

	it, ok := s.items[itemID]
	if !ok {
		return nil, facegate.ErrItemNotFound
	}
	key := pairKey{user: userID, item: itemID}
	if _, viewed := s.accesses[key]; viewed {
		return nil, facegate.ErrAlreadyViewed
	}

	entry := ledger.Entry{
		ID:          id.New(id.PrefixEntry),
		UserID:      userID,
		Type:        ledger.EntryDebit,
		Amount:      price,
		Description: "view " + itemID.String(),
		CreatedAt:   time.Now().UTC(),
	}
	balance, err := s.debitLocked(userID, price, entry)
	if err != nil {
		return nil, err
	}

	s.accesses[key] = time.Now().UTC()
	it.ViewCount++
	it.Touch()
	return &gate.Grant{Balance: balance, ViewCount: it.ViewCount}, nil
}

// ──────────────────────────────────────────────────
// engagement.Store
// ──────────────────────────────────────────────────

func (s *Store) ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*engagement.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, facegate.ErrStoreClosed
	}

	it, ok := s.items[itemID]
	if !ok {
		return nil, facegate.ErrItemNotFound
	}

	key := pairKey{user: userID, item: itemID}
	liked := !s.likes[key]
	if liked {
		s.likes[key] = true
		it.LikeCount++
	} else {
		delete(s.likes, key)
		if it.LikeCount > 0 {
			it.LikeCount--
		}
	}
	it.Touch()

	return &engagement.LikeResult{
		ItemID:    itemID,
		Liked:     liked,
		LikeCount: it.LikeCount,
	}, nil
}

func (s *Store) IsLiked(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, facegate.ErrStoreClosed
	}
	return s.likes[pairKey{user: userID, item: itemID}], nil
}

func (s *Store) IngestEvents(ctx context.Context, events []*engagement.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return facegate.ErrStoreClosed
	}

	for _, ev := range events {
		if ev.IdempotencyKey != "" {
			if _, dup := s.eventKeys[ev.IdempotencyKey]; dup {
				continue
			}
			s.eventKeys[ev.IdempotencyKey] = struct{}{}
		}
		c := *ev
		s.events = append(s.events, &c)
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, userID id.UserID, opts engagement.QueryOpts) ([]*engagement.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, facegate.ErrStoreClosed
	}

	var out []*engagement.Event
	for _, ev := range s.events {
		if ev.UserID != userID {
			continue
		}
		if !opts.ItemID.IsNil() && ev.ItemID != opts.ItemID {
			continue
		}
		if opts.Kind != "" && ev.Kind != opts.Kind {
			continue
		}
		if !opts.Start.IsZero() && ev.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && !ev.Timestamp.Before(opts.End) {
			continue
		}
		c := *ev
		out = append(out, &c)
	}
	return page(out, opts.Offset, opts.Limit), nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, facegate.ErrStoreClosed
	}

	kept := s.events[:0]
	var purged int64
	for _, ev := range s.events {
		if ev.Timestamp.Before(before) {
			purged++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return purged, nil
}

func page[T any](in []*T, offset, limit int) []*T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []*T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
