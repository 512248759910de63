package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamweelsys/fawtara/internal/billing"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
}

func fixtureSources() sources {
	return sources{
		Transactions: []billing.Transaction{
			{ID: "t1", Customer: billing.RegisteredCustomer("u1"), Type: billing.TxPayment, Amount: 200, Date: day(1, 10)},
			{ID: "t2", Customer: billing.RegisteredCustomer("u2"), Type: billing.TxPayment, Amount: 100, Date: day(2, 9)},
			// Guest payments flow through grouped balances, not revenue.
			{ID: "t3", Customer: billing.GuestCustomer("g1"), Type: billing.TxPayment, Amount: 500, Date: day(1, 11)},
			{ID: "t4", Customer: billing.RegisteredCustomer("u1"), Type: billing.TxCharge, Amount: 50, Date: day(1, 12)},
			{ID: "t5", Customer: billing.RegisteredCustomer("u1"), Type: billing.TxPayment, Amount: 999, Date: day(8, 10)},
		},
		Expenses: []billing.Expense{
			{ID: "e1", Amount: 30, Date: day(1, 8)},
			{ID: "e2", Amount: 70, Date: day(2, 8)},
			{ID: "e3", Amount: 999, Date: day(9, 8)},
		},
		Orders: []billing.Order{
			{ID: "o1", UserID: "u1", SellingPriceLYD: 1000, PurchasePriceUSD: 100, ExchangeRate: 5, ShippingCostLYD: 50, Status: billing.StatusShipped, OperationDate: day(1, 14)},
			{ID: "o2", UserID: "u2", SellingPriceLYD: 300, PurchasePriceUSD: 40, ExchangeRate: 5, ShippingCostLYD: 20, Status: billing.StatusDelivered, OperationDate: day(2, 14)},
			{ID: "o3", UserID: "u1", SellingPriceLYD: 800, PurchasePriceUSD: 10, ExchangeRate: 5, Status: billing.StatusCancelled, OperationDate: day(1, 15)},
			{ID: "o4", UserID: "TEMP-g1", SellingPriceLYD: 600, PurchasePriceUSD: 10, ExchangeRate: 5, Status: billing.StatusShipped, OperationDate: day(1, 16)},
		},
		Grouped: []billing.GroupedOrder{
			{ID: "g1", Status: billing.StatusShipped, RemainingAmount: 120},
			{ID: "g2", Status: billing.StatusCancelled, RemainingAmount: 777},
		},
	}
}

func TestComputeWindowAggregates(t *testing.T) {
	src := fixtureSources()
	report := ComputeWindow(src, day(1, 0), day(3, 0))

	// Registered payments only: 200 + 100.
	require.Equal(t, 300.0, report.Revenue)
	require.Equal(t, 100.0, report.Expenses)

	// o1: 1000 - 500 - 50 = 450; o2: 300 - 200 - 20 = 80.
	// o3 is cancelled and o4 belongs to a guest reference.
	require.Equal(t, 530.0, report.GrossProfit)
	require.Equal(t, 430.0, report.NetProfit)

	// g2 is cancelled and carries no outstanding weight.
	require.Equal(t, 120.0, report.GroupedOutstanding)
}

func TestComputeWindowPerDaySeries(t *testing.T) {
	report := ComputeWindow(fixtureSources(), day(1, 0), day(3, 0))
	require.Len(t, report.PerDay, 2)

	d1 := report.PerDay[0]
	require.Equal(t, "2026-03-01", d1.Day)
	require.Equal(t, 200.0, d1.Revenue)
	require.Equal(t, 30.0, d1.Expenses)
	require.Equal(t, 450.0, d1.GrossProfit)
	require.Equal(t, 420.0, d1.NetProfit)

	d2 := report.PerDay[1]
	require.Equal(t, "2026-03-02", d2.Day)
	require.Equal(t, 100.0, d2.Revenue)
	require.Equal(t, 70.0, d2.Expenses)
	require.Equal(t, 80.0, d2.GrossProfit)
	require.Equal(t, 10.0, d2.NetProfit)
}

func TestComputeWindowIsIdempotent(t *testing.T) {
	src := fixtureSources()
	first := ComputeWindow(src, day(1, 0), day(3, 0))
	second := ComputeWindow(src, day(1, 0), day(3, 0))
	require.Equal(t, first, second)
}

func TestComputeWindowEmptyAndInverted(t *testing.T) {
	report := ComputeWindow(sources{}, day(5, 0), day(6, 0))
	require.Zero(t, report.Revenue)
	require.Len(t, report.PerDay, 1)
	require.Equal(t, "2026-03-05", report.PerDay[0].Day)

	inverted := ComputeWindow(fixtureSources(), day(3, 0), day(1, 0))
	require.Zero(t, inverted.Revenue)
	require.Empty(t, inverted.PerDay)
}

func TestComputeWindowExcludesOutOfWindowFacts(t *testing.T) {
	report := ComputeWindow(fixtureSources(), day(1, 0), day(3, 0))
	// t5 (day 8) and e3 (day 9) must not leak in.
	require.NotEqual(t, 1299.0, report.Revenue)
	require.Equal(t, 300.0, report.Revenue)
	require.Equal(t, 100.0, report.Expenses)
}

func TestOrderProfitScenario(t *testing.T) {
	o := billing.Order{
		SellingPriceLYD:  1000,
		PurchasePriceUSD: 100,
		ExchangeRate:     5,
		ShippingCostLYD:  50,
	}
	require.Equal(t, 500.0, o.PurchaseCostLYD())
	require.Equal(t, 450.0, o.GrossProfit())
}

func TestComputeDebtOverview(t *testing.T) {
	orders := []billing.Order{
		{ID: "o1", RemainingAmount: 40, Status: billing.StatusShipped},
		{ID: "o2", RemainingAmount: 999, Status: billing.StatusCancelled},
	}
	grouped := []billing.GroupedOrder{
		{ID: "g1", RemainingAmount: 60, Status: billing.StatusPending},
		{ID: "g2", RemainingAmount: 999, Status: billing.StatusCancelled},
	}
	creditors := []billing.Creditor{
		{ID: "c1", Name: "Freight Co", TotalDebt: 25},
		{ID: "c2", Name: "Customs Broker", TotalDebt: 75},
	}

	overview := ComputeDebtOverview(orders, grouped, creditors)
	require.Equal(t, 40.0, overview.OrderDebtLYD)
	require.Equal(t, 60.0, overview.GroupedDebtLYD)
	require.Equal(t, 100.0, overview.CreditorDebtLYD)
	require.Equal(t, 200.0, overview.TotalLYD)
	require.Len(t, overview.Creditors, 2)
}
