package discovery

import "errors"

var (
	// ErrExhausted is returned by RequestNextPage once an empty page
	// has been applied for the current query.
	ErrExhausted = errors.New("facegate: no more pages")

	// ErrFetchInProgress is returned by RequestNextPage while the
	// fetch pipeline is full.
	ErrFetchInProgress = errors.New("facegate: page fetch already in progress")

	// ErrStaleGeneration marks a response that belongs to an
	// abandoned query generation.
	ErrStaleGeneration = errors.New("facegate: response belongs to an abandoned query generation")
)
