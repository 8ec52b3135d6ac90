package engagement

import (
	"sync"

	"github.com/jesssevilleja/facegate/id"
)

// FlipToken identifies one unsettled local flip. Toggle hands one out
// and Confirm or Reject settles exactly that flip, so a failed newer
// call never discards an older in-flight flip.
type FlipToken uint64

// Tracker is the client-side optimistic mirror of like state. Each
// local toggle is a pending delta applied on top of the last known
// authoritative value; server confirmations replace the authoritative
// value and settle their own flip, and failures discard theirs.
//
// The boolean follows last-local-intent: a confirmation never
// overwrites a newer local toggle. The counter is always recomputed as
// authoritative count plus the sum of not-yet-confirmed local deltas.
type Tracker struct {
	mu        sync.Mutex
	items     map[string]*trackedItem
	nextToken FlipToken
}

type pendingFlip struct {
	token FlipToken
	delta int64
}

type trackedItem struct {
	liked bool  // last authoritative like state
	count int64 // last authoritative like count

	// pending holds each unsettled local flip, oldest first. Parity of
	// len(pending) gives the local intent.
	pending []pendingFlip
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{items: make(map[string]*trackedItem)}
}

// Seed records the authoritative state for an item, typically from a
// fetched page. Pending local flips, if any, are preserved.
func (t *Tracker) Seed(itemID id.ItemID, liked bool, likeCount int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	it := t.item(itemID)
	it.liked = liked
	it.count = likeCount
}

// Toggle applies a local optimistic flip and returns the resulting
// view plus the token that settles this flip. The flip stays pending
// until Confirm or Reject is called with the token.
func (t *Tracker) Toggle(itemID id.ItemID) (LikeResult, FlipToken) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextToken++
	token := t.nextToken

	it := t.item(itemID)
	delta := int64(+1)
	if it.optimisticLiked() {
		delta = -1
	}
	it.pending = append(it.pending, pendingFlip{token: token, delta: delta})
	return it.view(itemID), token
}

// Confirm settles the token's flip with the server's authoritative
// result. Other flips stay pending on top of the new authoritative
// value.
func (t *Tracker) Confirm(itemID id.ItemID, token FlipToken, authoritative LikeResult) LikeResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	it := t.item(itemID)
	it.settle(token)
	it.liked = authoritative.Liked
	it.count = authoritative.LikeCount
	return it.view(itemID)
}

// Reject discards the token's flip after a failed write, reverting the
// optimistic view to the authoritative state plus any other pending
// flips.
func (t *Tracker) Reject(itemID id.ItemID, token FlipToken) LikeResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	it := t.item(itemID)
	it.settle(token)
	return it.view(itemID)
}

// View returns the current optimistic state for an item. ok is false
// for items the tracker has never seen.
func (t *Tracker) View(itemID id.ItemID) (LikeResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	it, ok := t.items[itemID.String()]
	if !ok {
		return LikeResult{ItemID: itemID}, false
	}
	return it.view(itemID), true
}

// PendingFlips returns the number of unsettled local flips for an item.
func (t *Tracker) PendingFlips(itemID id.ItemID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if it, ok := t.items[itemID.String()]; ok {
		return len(it.pending)
	}
	return 0
}

// Reset drops all tracked state, e.g. when the feed query resets.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.items = make(map[string]*trackedItem)
}

func (t *Tracker) item(itemID id.ItemID) *trackedItem {
	key := itemID.String()
	it, ok := t.items[key]
	if !ok {
		it = &trackedItem{}
		t.items[key] = it
	}
	return it
}

func (it *trackedItem) settle(token FlipToken) {
	for i, p := range it.pending {
		if p.token == token {
			it.pending = append(it.pending[:i], it.pending[i+1:]...)
			return
		}
	}
}

func (it *trackedItem) optimisticLiked() bool {
	return it.liked != (len(it.pending)%2 == 1)
}

func (it *trackedItem) view(itemID id.ItemID) LikeResult {
	count := it.count
	for _, p := range it.pending {
		count += p.delta
	}
	if count < 0 {
		count = 0
	}
	return LikeResult{
		ItemID:    itemID,
		Liked:     it.optimisticLiked(),
		LikeCount: count,
	}
}
