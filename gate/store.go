package gate

import (
	"context"
	"time"

	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Store is the access record contract. The (user, item) access record
// is the sole source of truth for "already charged": at most one
// record ever exists per pair, so at most one debit is ever attributed
// to a first view.
type Store interface {
	// HasViewed reports whether a successful charged access was ever
	// recorded for the pair.
	HasViewed(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error)

	// GrantAccess atomically debits price from the user's wallet,
	// records the access, and increments the item's view count. All
	// three commit together or not at all. Returns the
	// insufficient-funds sentinel when the balance does not cover
	// price, and the already-recorded sentinel when a record exists.
	GrantAccess(ctx context.Context, userID id.UserID, itemID id.ItemID, price types.Credits) (*Grant, error)
}

// Cache is a TTL cache fronting repeat-view checks. Implementations
// may lose entries at any time; the store record remains the final
// guard against double charging.
type Cache interface {
	GetDecision(ctx context.Context, userID id.UserID, itemID id.ItemID) (*Decision, error)
	SetDecision(ctx context.Context, userID id.UserID, itemID id.ItemID, d *Decision, ttl time.Duration) error
	Invalidate(ctx context.Context, userID id.UserID) error
	InvalidateItem(ctx context.Context, userID id.UserID, itemID id.ItemID) error
}
