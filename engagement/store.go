package engagement

import (
	"context"
	"time"

	"github.com/jesssevilleja/facegate/id"
)

// Store is the engagement persistence contract.
type Store interface {
	// ToggleLike atomically flips the user's like on the item and
	// adjusts the aggregate count, never below zero. Calling it twice
	// restores the original state and count.
	ToggleLike(ctx context.Context, userID id.UserID, itemID id.ItemID) (*LikeResult, error)

	// IsLiked reports the user's current like state for the item.
	IsLiked(ctx context.Context, userID id.UserID, itemID id.ItemID) (bool, error)

	// IngestEvents appends a batch of engagement events, skipping
	// entries whose idempotency key was already recorded.
	IngestEvents(ctx context.Context, events []*Event) error

	QueryEvents(ctx context.Context, userID id.UserID, opts QueryOpts) ([]*Event, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)
}
