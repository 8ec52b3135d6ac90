// Package gate defines access decisions for credit-gated content.
package gate

import (
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Decision is the outcome of an access request. A granted repeat view
// has Charged=false; a granted first view has Charged=true and Balance
// reflects the debit.
type Decision struct {
	Granted bool          `json:"granted"`
	Charged bool          `json:"charged"`
	ItemID  id.ItemID     `json:"item_id"`
	Price   types.Credits `json:"price"`
	Balance types.Credits `json:"balance"`
	Reason  string        `json:"reason,omitempty"`
}

// Grant is the store-side result of an atomic first-view charge:
// debit, access record and view-count increment committed together.
type Grant struct {
	Balance   types.Credits `json:"balance"`
	ViewCount int64         `json:"view_count"`
}
