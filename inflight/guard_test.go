package inflight

import (
	"sync"
	"testing"

	"github.com/jesssevilleja/facegate/id"
)

func TestGuardRejectsDuplicate(t *testing.T) {
	g := New()
	user, item := id.NewUserID(), id.NewItemID()

	if !g.TryAcquire(user, item, KindAccess) {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire(user, item, KindAccess) {
		t.Error("duplicate acquire should be rejected")
	}

	g.Release(user, item, KindAccess)
	if !g.TryAcquire(user, item, KindAccess) {
		t.Error("acquire after release should succeed")
	}
}

func TestGuardKeysAreIndependent(t *testing.T) {
	g := New()
	user, item := id.NewUserID(), id.NewItemID()

	if !g.TryAcquire(user, item, KindAccess) {
		t.Fatal("access acquire should succeed")
	}
	if !g.TryAcquire(user, item, KindLike) {
		t.Error("like on the same pair is a different key")
	}
	if !g.TryAcquire(user, id.NewItemID(), KindAccess) {
		t.Error("access on a different item is a different key")
	}
	if !g.TryAcquire(id.NewUserID(), item, KindAccess) {
		t.Error("access by a different user is a different key")
	}
}

func TestGuardReleaseUnheldIsNoop(t *testing.T) {
	g := New()
	user, item := id.NewUserID(), id.NewItemID()
	g.Release(user, item, KindLike)
	if g.Held(user, item, KindLike) {
		t.Error("unheld key should not be held")
	}
}

func TestGuardConcurrentAcquire(t *testing.T) {
	g := New()
	user, item := id.NewUserID(), id.NewItemID()

	const n = 32
	var wg sync.WaitGroup
	results := make(chan bool, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.TryAcquire(user, item, KindAccess)
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for ok := range results {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Errorf("exactly one concurrent acquire should win, got %d", won)
	}
}
