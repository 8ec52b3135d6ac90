package ledger

import (
	"context"

	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Store is the wallet persistence contract. Debit must be atomic: the
// balance is checked and decremented as one step, so concurrent debits
// for the same user can never drive the balance negative.
type Store interface {
	CreateWallet(ctx context.Context, userID id.UserID, initial types.Credits) error
	GetBalance(ctx context.Context, userID id.UserID) (types.Credits, error)

	// Credit adds amount and appends a ledger entry, returning the new
	// balance. amount has been validated positive by the caller.
	Credit(ctx context.Context, userID id.UserID, amount types.Credits, entry Entry) (types.Credits, error)

	// Debit subtracts amount if and only if the balance covers it,
	// appending a ledger entry. Fails with the insufficient-funds
	// sentinel without any partial mutation otherwise.
	Debit(ctx context.Context, userID id.UserID, amount types.Credits, entry Entry) (types.Credits, error)

	ListEntries(ctx context.Context, userID id.UserID, opts QueryOpts) ([]*Entry, error)
}
