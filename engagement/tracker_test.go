package engagement

import (
	"testing"

	"github.com/jesssevilleja/facegate/id"
)

func TestTrackerOptimisticToggle(t *testing.T) {
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, false, 10)

	got, _ := tr.Toggle(item)
	if !got.Liked || got.LikeCount != 11 {
		t.Errorf("optimistic toggle: got liked=%v count=%d, want true/11", got.Liked, got.LikeCount)
	}
	if tr.PendingFlips(item) != 1 {
		t.Errorf("expected 1 pending flip, got %d", tr.PendingFlips(item))
	}
}

func TestTrackerToggleTwiceRestores(t *testing.T) {
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, false, 10)

	tr.Toggle(item)
	got, _ := tr.Toggle(item)
	if got.Liked || got.LikeCount != 10 {
		t.Errorf("double toggle: got liked=%v count=%d, want false/10", got.Liked, got.LikeCount)
	}
}

func TestTrackerConfirmSettles(t *testing.T) {
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, false, 10)

	_, token := tr.Toggle(item)
	got := tr.Confirm(item, token, LikeResult{ItemID: item, Liked: true, LikeCount: 11})
	if !got.Liked || got.LikeCount != 11 {
		t.Errorf("after confirm: got liked=%v count=%d, want true/11", got.Liked, got.LikeCount)
	}
	if tr.PendingFlips(item) != 0 {
		t.Errorf("expected no pending flips after confirm, got %d", tr.PendingFlips(item))
	}
}

func TestTrackerRejectReverts(t *testing.T) {
	// Scenario: likeCount=10, liked=false; optimistic flip shows 11/true;
	// the confirming call fails; state reverts to 10/false.
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, false, 10)

	_, token := tr.Toggle(item)
	got := tr.Reject(item, token)
	if got.Liked || got.LikeCount != 10 {
		t.Errorf("after reject: got liked=%v count=%d, want false/10", got.Liked, got.LikeCount)
	}
}

func TestTrackerLastLocalIntentWins(t *testing.T) {
	// A second local toggle lands before the first flip's confirmation.
	// The confirmation settles the first flip only; the boolean keeps
	// the newer local intent and the counter is authoritative plus the
	// unconfirmed delta.
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, false, 10)

	_, first := tr.Toggle(item) // intent: liked, pending +1
	tr.Toggle(item)             // intent: not liked, pending -1

	got := tr.Confirm(item, first, LikeResult{ItemID: item, Liked: true, LikeCount: 11})
	if got.Liked {
		t.Error("confirmation must not overwrite the newer local intent")
	}
	if got.LikeCount != 10 {
		t.Errorf("count should be authoritative 11 plus pending -1, got %d", got.LikeCount)
	}
	if tr.PendingFlips(item) != 1 {
		t.Errorf("expected 1 remaining pending flip, got %d", tr.PendingFlips(item))
	}
}

func TestTrackerRejectSettlesOwnFlip(t *testing.T) {
	// A second toggle fails while the first is still in flight. Only the
	// rejected flip's delta is dropped; the older flip stays pending and
	// its later confirmation settles cleanly.
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, false, 10)

	_, first := tr.Toggle(item)    // +1, in flight
	_, second := tr.Toggle(item)   // -1, will be rejected
	got := tr.Reject(item, second) // must drop the -1, not the +1
	if !got.Liked || got.LikeCount != 11 {
		t.Errorf("after rejecting the newer flip: got liked=%v count=%d, want true/11", got.Liked, got.LikeCount)
	}
	if tr.PendingFlips(item) != 1 {
		t.Fatalf("expected the older flip to stay pending, got %d", tr.PendingFlips(item))
	}

	got = tr.Confirm(item, first, LikeResult{ItemID: item, Liked: true, LikeCount: 11})
	if !got.Liked || got.LikeCount != 11 {
		t.Errorf("after confirming the older flip: got liked=%v count=%d, want true/11", got.Liked, got.LikeCount)
	}
	if tr.PendingFlips(item) != 0 {
		t.Errorf("expected no pending flips, got %d", tr.PendingFlips(item))
	}
}

func TestTrackerCountNeverNegative(t *testing.T) {
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, true, 0)

	got, _ := tr.Toggle(item) // unlike at count 0
	if got.LikeCount != 0 {
		t.Errorf("count must clamp at 0, got %d", got.LikeCount)
	}
}

func TestTrackerViewUnknownItem(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.View(id.NewItemID()); ok {
		t.Error("expected ok=false for an item the tracker has never seen")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	item := id.NewItemID()
	tr.Seed(item, true, 5)
	tr.Reset()
	if _, ok := tr.View(item); ok {
		t.Error("expected state cleared after Reset")
	}
}
