package content

import (
	"context"

	"github.com/jesssevilleja/facegate/id"
)

// Store is the item catalog contract. Requester-relative flags
// (ViewedByRequester, LikedByRequester) are populated when requester
// is non-nil and left false for anonymous reads.
type Store interface {
	CreateItem(ctx context.Context, item *Item) error

	GetItem(ctx context.Context, itemID id.ItemID, requester id.UserID) (*Item, error)

	// ListItems returns the page selected by q. An empty slice with a
	// nil error means the listing is past its last page.
	ListItems(ctx context.Context, q Query, requester id.UserID) ([]*Item, error)

	// CountItems counts the items matching q, ignoring pagination.
	CountItems(ctx context.Context, q Query) (int64, error)
}
