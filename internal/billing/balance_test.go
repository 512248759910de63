package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamweelsys/fawtara/internal/shared"
)

func TestRecomputeTotalsSums(t *testing.T) {
	g := GroupedOrder{
		SubOrders: []SubOrder{
			{SubOrderID: "a", SellingPriceLYD: 100, RemainingAmount: 60},
			{SubOrderID: "b", SellingPriceLYD: 50, RemainingAmount: 50},
			{SubOrderID: "c", SellingPriceLYD: 25, RemainingAmount: 0},
		},
		// Stale derived values must be overwritten, not trusted.
		TotalAmount:     999,
		RemainingAmount: 999,
	}

	out, err := RecomputeTotals(g)
	require.NoError(t, err)
	require.Equal(t, 175.0, out.TotalAmount)
	require.Equal(t, 110.0, out.RemainingAmount)
}

func TestRecomputeTotalsEmptyInvoice(t *testing.T) {
	out, err := RecomputeTotals(GroupedOrder{TotalAmount: 5, RemainingAmount: 5})
	require.NoError(t, err)
	require.Equal(t, 0.0, out.TotalAmount)
	require.Equal(t, 0.0, out.RemainingAmount)
}

func TestRecomputeTotalsRejectsNegativeRemaining(t *testing.T) {
	g := GroupedOrder{
		SubOrders: []SubOrder{
			{SubOrderID: "a", SellingPriceLYD: 100, RemainingAmount: -1},
		},
	}
	_, err := RecomputeTotals(g)
	require.ErrorIs(t, err, shared.ErrInvariantViolation)
}

func TestRecomputeTotalsRejectsRemainingAboveSelling(t *testing.T) {
	g := GroupedOrder{
		SubOrders: []SubOrder{
			{SubOrderID: "a", SellingPriceLYD: 100, RemainingAmount: 100.5},
		},
	}
	_, err := RecomputeTotals(g)
	require.ErrorIs(t, err, shared.ErrInvariantViolation)
}
