package finance

import (
	"time"

	"github.com/tamweelsys/fawtara/internal/billing"
)

const dayFormat = "2006-01-02"

// ComputeWindow aggregates the [start, end) window. It is a pure function
// of its inputs: identical inputs produce identical output, and the window
// bounds come from the caller rather than the ambient clock.
//
// Revenue counts only payment transactions of registered users; guest
// (grouped-order) payments are surfaced through GroupedOutstanding instead
// so the same cash inflow is never counted through two ledgers. Cancelled
// orders and orders held by guest references carry no revenue or profit.
func ComputeWindow(src sources, start, end time.Time) WindowReport {
	report := WindowReport{Start: start, End: end}
	if !start.Before(end) {
		return report
	}

	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC()

	days := make(map[string]*DayPoint)
	var order []string
	for d := start; d.Before(end); d = d.Add(24 * time.Hour) {
		key := d.Format(dayFormat)
		days[key] = &DayPoint{Day: key}
		order = append(order, key)
	}
	dayOf := func(t time.Time) *DayPoint {
		return days[t.UTC().Format(dayFormat)]
	}
	inWindow := func(t time.Time) bool {
		t = t.UTC()
		return !t.Before(start) && t.Before(end)
	}

	for _, tx := range src.Transactions {
		if tx.Type != billing.TxPayment || tx.Customer.IsGuest() || !inWindow(tx.Date) {
			continue
		}
		report.Revenue += tx.Amount
		if p := dayOf(tx.Date); p != nil {
			p.Revenue += tx.Amount
		}
	}

	for _, e := range src.Expenses {
		if !inWindow(e.Date) {
			continue
		}
		report.Expenses += e.Amount
		if p := dayOf(e.Date); p != nil {
			p.Expenses += e.Amount
		}
	}

	for _, o := range src.Orders {
		if o.Status == billing.StatusCancelled || billing.ParseCustomerRef(o.UserID).IsGuest() {
			continue
		}
		if !inWindow(o.OperationDate) {
			continue
		}
		gp := o.GrossProfit()
		report.GrossProfit += gp
		if p := dayOf(o.OperationDate); p != nil {
			p.GrossProfit += gp
		}
	}

	for _, g := range src.Grouped {
		if g.Status == billing.StatusCancelled {
			continue
		}
		report.GroupedOutstanding += g.RemainingAmount
	}

	report.NetProfit = report.GrossProfit - report.Expenses
	for _, key := range order {
		p := days[key]
		p.NetProfit = p.GrossProfit - p.Expenses
		report.PerDay = append(report.PerDay, *p)
	}
	return report
}

// ComputeDebtOverview sums outstanding balances: non-cancelled standalone
// orders, non-cancelled grouped invoices, and external creditor debt.
func ComputeDebtOverview(orders []billing.Order, grouped []billing.GroupedOrder, creditors []billing.Creditor) DebtOverview {
	var overview DebtOverview
	for _, o := range orders {
		if o.Status == billing.StatusCancelled {
			continue
		}
		overview.OrderDebtLYD += o.RemainingAmount
	}
	for _, g := range grouped {
		if g.Status == billing.StatusCancelled {
			continue
		}
		overview.GroupedDebtLYD += g.RemainingAmount
	}
	for _, c := range creditors {
		overview.CreditorDebtLYD += c.TotalDebt
	}
	overview.TotalLYD = overview.OrderDebtLYD + overview.GroupedDebtLYD + overview.CreditorDebtLYD
	overview.Creditors = creditors
	return overview
}
