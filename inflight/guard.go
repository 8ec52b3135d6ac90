// Package inflight provides a keyed single-flight guard.
//
// Unlike result-sharing single-flight, duplicate attempts are rejected
// outright: a second access or like for the same (user, item, kind)
// issued before the first completes must not queue silently, it must
// tell the caller to retry after completion.
package inflight

import (
	"fmt"
	"sync"

	"github.com/jesssevilleja/facegate/id"
)

// Kind names the operation class a guard key covers.
type Kind string

const (
	KindAccess Kind = "access"
	KindLike   Kind = "like"
)

// Guard tracks in-progress operations per (user, item, kind) key.
type Guard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// New creates an empty guard.
func New() *Guard {
	return &Guard{keys: make(map[string]struct{})}
}

// TryAcquire marks the key in flight. It returns false if the same key
// is already held, in which case the caller must reject the duplicate.
func (g *Guard) TryAcquire(userID id.UserID, itemID id.ItemID, kind Kind) bool {
	key := guardKey(userID, itemID, kind)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// Release clears the key. Releasing a key that is not held is a no-op.
func (g *Guard) Release(userID id.UserID, itemID id.ItemID, kind Kind) {
	key := guardKey(userID, itemID, kind)

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.keys, key)
}

// Held reports whether the key is currently in flight.
func (g *Guard) Held(userID id.UserID, itemID id.ItemID, kind Kind) bool {
	key := guardKey(userID, itemID, kind)

	g.mu.Lock()
	defer g.mu.Unlock()

	_, held := g.keys[key]
	return held
}

func guardKey(userID id.UserID, itemID id.ItemID, kind Kind) string {
	return fmt.Sprintf("%s:%s:%s", userID.String(), itemID.String(), kind)
}
