// Package store defines the unified persistence interface for the
// facegate engine. Driver implementations live in subpackages:
// memory (tests and embedding), postgres, sqlite and mongo.
package store

import (
	"context"

	"github.com/jesssevilleja/facegate/content"
	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/ledger"
)

// Store is the full persistence contract a backend must satisfy. Each
// embedded interface covers one concern; a driver implements them all
// against a single database so the cross-concern operations, most
// importantly gate.Store.GrantAccess, can be transactional.
type Store interface {
	ledger.Store
	gate.Store
	engagement.Store
	content.Store

	// Migrate creates or upgrades the backing schema. It is safe to
	// call on every start.
	Migrate(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources. The store must not be
	// used after Close returns.
	Close(ctx context.Context) error
}
