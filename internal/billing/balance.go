package billing

import (
	"fmt"

	"github.com/tamweelsys/fawtara/internal/shared"
)

// RecomputeTotals returns a copy of the grouped order with TotalAmount and
// RemainingAmount re-derived from its sub-orders. It is the single reducer
// every mutation path must run before persisting the parent; ad hoc inline
// arithmetic on the parent totals is not allowed.
//
// The child balances are validated, never clamped: a sub-order whose
// remaining amount is negative or exceeds its selling price fails with
// ErrInvariantViolation and the caller must reject the causing mutation.
func RecomputeTotals(g GroupedOrder) (GroupedOrder, error) {
	var total, remaining float64
	for i := range g.SubOrders {
		so := &g.SubOrders[i]
		if so.RemainingAmount < 0 {
			return GroupedOrder{}, fmt.Errorf(
				"billing: sub-order %s remaining %.2f is negative: %w",
				so.SubOrderID, so.RemainingAmount, shared.ErrInvariantViolation)
		}
		if so.RemainingAmount > so.SellingPriceLYD {
			return GroupedOrder{}, fmt.Errorf(
				"billing: sub-order %s remaining %.2f exceeds selling price %.2f: %w",
				so.SubOrderID, so.RemainingAmount, so.SellingPriceLYD, shared.ErrInvariantViolation)
		}
		total += so.SellingPriceLYD
		remaining += so.RemainingAmount
	}
	g.TotalAmount = total
	g.RemainingAmount = remaining
	return g, nil
}
