// Package ledger defines wallet and ledger entry models for the
// prepaid credit balance.
package ledger

import (
	"time"

	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// EntryType is the accounting side of a ledger entry.
type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// Wallet holds a user's credit balance. The balance is authoritative
// at the store and never negative.
type Wallet struct {
	types.Entity

	UserID  id.UserID     `json:"user_id"`
	Balance types.Credits `json:"balance"`
}

// Entry is a single immutable line in the credit ledger. Balance is
// the wallet balance after the entry was applied.
type Entry struct {
	ID             id.EntryID    `json:"id"`
	UserID         id.UserID     `json:"user_id"`
	Type           EntryType     `json:"type"`
	Amount         types.Credits `json:"amount"` // always positive
	Balance        types.Credits `json:"balance"`
	Description    string        `json:"description,omitempty"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// QueryOpts filters a ledger entry listing.
type QueryOpts struct {
	Type   EntryType // empty = both sides
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
