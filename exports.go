package facegate

import "github.com/jesssevilleja/facegate/types"

// Re-export common types for convenience so users don't have to import the types package.

// Credits is re-exported from the types package.
type Credits = types.Credits

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-export Credits constructors
var (
	CreditsOf  = types.CreditsOf
	SumCredits = types.SumCredits
)

// ZeroCredits is the empty balance.
const ZeroCredits = types.ZeroCredits

// Re-export Entity constructor
var NewEntity = types.NewEntity
