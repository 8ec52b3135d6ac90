package facegate

import (
	"errors"
	"fmt"

	"github.com/jesssevilleja/facegate/discovery"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("facegate: not found")
	ErrAlreadyExists = errors.New("facegate: already exists")
	ErrInvalidInput  = errors.New("facegate: invalid input")

	// Identity errors
	ErrAuthenticationRequired = errors.New("facegate: authentication required")

	// Wallet errors
	ErrWalletNotFound    = errors.New("facegate: wallet not found")
	ErrInsufficientFunds = errors.New("facegate: insufficient funds")
	ErrInvalidAmount     = errors.New("facegate: amount must be a positive integer")
	ErrDuplicateEntry    = errors.New("facegate: duplicate ledger entry")

	// Access errors
	ErrItemNotFound  = errors.New("facegate: item not found")
	ErrAccessDenied  = errors.New("facegate: access denied")
	ErrAlreadyViewed = errors.New("facegate: access already recorded")

	// Concurrency errors
	ErrInFlight = errors.New("facegate: operation already in flight, retry after completion")

	// Engagement errors
	ErrEventBufferFull = errors.New("facegate: engagement event buffer full")

	// Feed errors, owned by the discovery package and re-exported
	// here so callers only need one import for error checks.
	ErrExhausted       = discovery.ErrExhausted
	ErrFetchInProgress = discovery.ErrFetchInProgress
	ErrStaleGeneration = discovery.ErrStaleGeneration

	// Store errors
	ErrStoreNotReady     = errors.New("facegate: store not ready")
	ErrStoreClosed       = errors.New("facegate: store is closed")
	ErrTransactionFailed = errors.New("facegate: transaction failed")
	ErrMigrationFailed   = errors.New("facegate: migration failed")

	// Cache errors
	ErrCacheMiss       = errors.New("facegate: cache miss")
	ErrCacheInvalidate = errors.New("facegate: cache invalidation failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("facegate: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrItemNotFound)
}

// IsRecoverable returns true if the error calls for a user action
// (sign-in or a balance top-up) rather than a retry. No state was
// mutated when a recoverable error is returned.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired) ||
		errors.Is(err, ErrInsufficientFunds)
}

// IsRetryable returns true if the error is temporary and the operation
// can be retried once the current attempt settles.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInFlight) ||
		errors.Is(err, ErrEventBufferFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrCacheInvalidate)
}
