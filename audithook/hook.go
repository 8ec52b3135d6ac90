// Package audithook records engine activity through a pluggable
// Recorder: wallet movements, access grants and like toggles become
// append-only audit entries.
package audithook

import (
	"context"
	"sync"
	"time"

	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Action classifies an audit entry.
type Action string

const (
	ActionWalletCredited    Action = "wallet.credited"
	ActionWalletDebited     Action = "wallet.debited"
	ActionInsufficientFunds Action = "wallet.insufficient_funds"
	ActionAccessGranted     Action = "access.granted"
	ActionLikeToggled       Action = "engagement.like_toggled"
)

// Entry is one audit record.
type Entry struct {
	Action     Action        `json:"action"`
	UserID     id.UserID     `json:"user_id"`
	ItemID     id.ItemID     `json:"item_id,omitempty"`
	Amount     types.Credits `json:"amount,omitempty"`
	Balance    types.Credits `json:"balance,omitempty"`
	Charged    bool          `json:"charged,omitempty"`
	Liked      bool          `json:"liked,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Recorder persists audit entries. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Hook bridges engine events to a Recorder. Register it with
// facegate.WithHook.
type Hook struct {
	recorder Recorder
}

// New creates an audit hook writing to the recorder.
func New(recorder Recorder) *Hook {
	return &Hook{recorder: recorder}
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit" }

// OnWalletCredited records a credit.
func (h *Hook) OnWalletCredited(ctx context.Context, userID id.UserID, amount, balance types.Credits) error {
	return h.recorder.Record(ctx, Entry{
		Action:     ActionWalletCredited,
		UserID:     userID,
		Amount:     amount,
		Balance:    balance,
		OccurredAt: time.Now().UTC(),
	})
}

// OnWalletDebited records a debit.
func (h *Hook) OnWalletDebited(ctx context.Context, userID id.UserID, amount, balance types.Credits) error {
	return h.recorder.Record(ctx, Entry{
		Action:     ActionWalletDebited,
		UserID:     userID,
		Amount:     amount,
		Balance:    balance,
		OccurredAt: time.Now().UTC(),
	})
}

// OnInsufficientFunds records a rejected charge.
func (h *Hook) OnInsufficientFunds(ctx context.Context, userID id.UserID, price, balance types.Credits) error {
	return h.recorder.Record(ctx, Entry{
		Action:     ActionInsufficientFunds,
		UserID:     userID,
		Amount:     price,
		Balance:    balance,
		OccurredAt: time.Now().UTC(),
	})
}

// OnAccessGranted records an access decision.
func (h *Hook) OnAccessGranted(ctx context.Context, userID id.UserID, decision *gate.Decision) error {
	return h.recorder.Record(ctx, Entry{
		Action:     ActionAccessGranted,
		UserID:     userID,
		ItemID:     decision.ItemID,
		Amount:     decision.Price,
		Balance:    decision.Balance,
		Charged:    decision.Charged,
		OccurredAt: time.Now().UTC(),
	})
}

// OnLikeToggled records a like flip.
func (h *Hook) OnLikeToggled(ctx context.Context, userID id.UserID, result *engagement.LikeResult) error {
	return h.recorder.Record(ctx, Entry{
		Action:     ActionLikeToggled,
		UserID:     userID,
		ItemID:     result.ItemID,
		Liked:      result.Liked,
		OccurredAt: time.Now().UTC(),
	})
}

// MemoryRecorder keeps entries in memory, for tests and for small
// embedded deployments.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the entry.
func (r *MemoryRecorder) Record(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries.
func (r *MemoryRecorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// ByAction returns recorded entries with the given action.
func (r *MemoryRecorder) ByAction(action Action) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
