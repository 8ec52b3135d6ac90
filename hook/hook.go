// Package hook provides an extensible hook system for facegate.
// Hooks can observe engine lifecycle events to extend functionality.
package hook

import (
	"context"
	"time"

	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. The engine is passed as an
// opaque value to avoid an import cycle with the root package.
type OnInit interface {
	Hook
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletCredited is called after a successful credit.
type OnWalletCredited interface {
	Hook
	OnWalletCredited(ctx context.Context, userID id.UserID, amount, balance types.Credits) error
}

// OnWalletDebited is called after a successful debit.
type OnWalletDebited interface {
	Hook
	OnWalletDebited(ctx context.Context, userID id.UserID, amount, balance types.Credits) error
}

// OnInsufficientFunds is called when a debit or charged access is
// rejected for lack of balance.
type OnInsufficientFunds interface {
	Hook
	OnInsufficientFunds(ctx context.Context, userID id.UserID, price, balance types.Credits) error
}

// ──────────────────────────────────────────────────
// Access hooks
// ──────────────────────────────────────────────────

// OnAccessGranted is called after a granted access, first view or
// repeat view alike; inspect Decision.Charged to tell them apart.
type OnAccessGranted interface {
	Hook
	OnAccessGranted(ctx context.Context, userID id.UserID, decision *gate.Decision) error
}

// ──────────────────────────────────────────────────
// Engagement hooks
// ──────────────────────────────────────────────────

// OnLikeToggled is called after a like flip commits.
type OnLikeToggled interface {
	Hook
	OnLikeToggled(ctx context.Context, userID id.UserID, result *engagement.LikeResult) error
}

// OnEventsFlushed is called when buffered engagement events are
// flushed to the store.
type OnEventsFlushed interface {
	Hook
	OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
