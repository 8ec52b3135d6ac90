// Package types provides common types used across facegate.
package types

import (
	"encoding/json"
	"fmt"
)

// Credits represents a prepaid credit amount. All arithmetic is
// integer-only; credits are indivisible units consumed whole.
//
// A wallet balance is a non-negative Credits value. Deltas (debits,
// pending adjustments) may be negative.
type Credits int64

// CreditsOf returns a Credits value for n units.
func CreditsOf(n int64) Credits { return Credits(n) }

// ZeroCredits is the empty balance.
const ZeroCredits Credits = 0

// Arithmetic operations

// Add adds two Credits values.
func (c Credits) Add(other Credits) Credits { return c + other }

// Subtract subtracts another Credits value. The result may be negative;
// callers enforcing balance invariants must check before applying.
func (c Credits) Subtract(other Credits) Credits { return c - other }

// Multiply multiplies the Credits by a quantity.
func (c Credits) Multiply(qty int64) Credits { return c * Credits(qty) }

// Negate returns the negative of the Credits value.
func (c Credits) Negate() Credits { return -c }

// Abs returns the absolute value.
func (c Credits) Abs() Credits {
	if c < 0 {
		return -c
	}
	return c
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (c Credits) IsZero() bool { return c == 0 }

// IsPositive returns true if the amount is greater than zero.
func (c Credits) IsPositive() bool { return c > 0 }

// IsNegative returns true if the amount is less than zero.
func (c Credits) IsNegative() bool { return c < 0 }

// LessThan returns true if this value is less than other.
func (c Credits) LessThan(other Credits) bool { return c < other }

// GreaterThan returns true if this value is greater than other.
func (c Credits) GreaterThan(other Credits) bool { return c > other }

// Covers returns true if a balance of this value can pay the given
// price in full.
func (c Credits) Covers(price Credits) bool { return c >= price }

// Min returns the smaller of two Credits values.
func (c Credits) Min(other Credits) Credits {
	if c < other {
		return c
	}
	return other
}

// Max returns the larger of two Credits values.
func (c Credits) Max(other Credits) Credits {
	if c > other {
		return c
	}
	return other
}

// Int64 returns the raw unit count.
func (c Credits) Int64() int64 { return int64(c) }

// String returns a human-readable string: "1 credit", "25 credits".
func (c Credits) String() string {
	if c == 1 || c == -1 {
		return fmt.Sprintf("%d credit", int64(c))
	}
	return fmt.Sprintf("%d credits", int64(c))
}

// MarshalJSON implements json.Marshaler.
func (c Credits) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(c))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Credits) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("credits: unmarshal: %w", err)
	}
	*c = Credits(n)
	return nil
}

// SumCredits calculates the sum of multiple Credits values.
func SumCredits(values ...Credits) Credits {
	var total Credits
	for _, v := range values {
		total += v
	}
	return total
}
