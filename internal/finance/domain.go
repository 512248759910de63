// Package finance implements read-only financial aggregation: daily
// revenue/expense/profit rollups, trailing series, and the debt overview.
package finance

import (
	"time"

	"github.com/tamweelsys/fawtara/internal/billing"
)

// DayPoint is one day of the rollup series. Days are independent; no
// cumulative state is carried between points.
type DayPoint struct {
	Day         string  `json:"day"`
	Revenue     float64 `json:"revenue"`
	Expenses    float64 `json:"expenses"`
	GrossProfit float64 `json:"gross_profit"`
	NetProfit   float64 `json:"net_profit"`
}

// WindowReport aggregates a [start, end) window.
type WindowReport struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Revenue  float64   `json:"revenue"`
	Expenses float64   `json:"expenses"`
	// GrossProfit covers standalone orders only; grouped-order cash is
	// tracked through remaining-balance deltas, never mixed in here.
	GrossProfit        float64    `json:"gross_profit"`
	NetProfit          float64    `json:"net_profit"`
	GroupedOutstanding float64    `json:"grouped_outstanding"`
	PerDay             []DayPoint `json:"per_day"`
}

// DebtOverview is the global outstanding position.
type DebtOverview struct {
	OrderDebtLYD    float64            `json:"order_debt_lyd"`
	GroupedDebtLYD  float64            `json:"grouped_debt_lyd"`
	CreditorDebtLYD float64            `json:"creditor_debt_lyd"`
	TotalLYD        float64            `json:"total_lyd"`
	Creditors       []billing.Creditor `json:"creditors"`
}

// sources is everything one window computation reads.
type sources struct {
	Transactions []billing.Transaction
	Expenses     []billing.Expense
	Orders       []billing.Order
	Grouped      []billing.GroupedOrder
}
