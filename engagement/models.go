// Package engagement tracks per-item view and like activity: the
// server-side event log and aggregates, and the client-side optimistic
// mirror that reconciles against them.
package engagement

import (
	"time"

	"github.com/jesssevilleja/facegate/id"
)

// EventKind classifies an engagement event.
type EventKind string

const (
	KindView   EventKind = "view"
	KindLike   EventKind = "like"
	KindUnlike EventKind = "unlike"
)

// Event is one engagement occurrence, buffered by the engine and
// batch-flushed to the store.
type Event struct {
	ID             id.EventID        `json:"id"`
	UserID         id.UserID         `json:"user_id"`
	ItemID         id.ItemID         `json:"item_id"`
	Kind           EventKind         `json:"kind"`
	Timestamp      time.Time         `json:"timestamp"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// LikeResult is the authoritative outcome of a like toggle.
type LikeResult struct {
	ItemID    id.ItemID `json:"item_id"`
	Liked     bool      `json:"liked"`
	LikeCount int64     `json:"like_count"`
}

// QueryOpts filters an event listing.
type QueryOpts struct {
	ItemID id.ItemID
	Kind   EventKind
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
