package finance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweelsys/fawtara/internal/billing"
	"github.com/tamweelsys/fawtara/internal/shared"
)

// Repository provides the PostgreSQL read side for aggregation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// storeErr classifies a raw driver failure as a retryable store outage.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("finance: %s: %v: %w", op, err, shared.ErrStoreUnavailable)
}

// ListTransactions returns all financial events. The stored customer_ref
// string is decoded into a tagged reference here, at the store boundary,
// so aggregation never re-parses prefixes.
func (r *Repository) ListTransactions(ctx context.Context) ([]billing.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, customer_ref, type, amount, date, notes FROM transactions ORDER BY date`)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	defer rows.Close()

	var out []billing.Transaction
	for rows.Next() {
		var t billing.Transaction
		var ref string
		if err := rows.Scan(&t.ID, &ref, &t.Type, &t.Amount, &t.Date, &t.Notes); err != nil {
			return nil, storeErr("scan transaction", err)
		}
		t.Customer = billing.ParseCustomerRef(ref)
		out = append(out, t)
	}
	return out, storeErr("list transactions", rows.Err())
}

// ListExpenses returns all expense entries.
func (r *Repository) ListExpenses(ctx context.Context) ([]billing.Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, amount, date, category FROM expenses ORDER BY date`)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var out []billing.Expense
	for rows.Next() {
		var e billing.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Date, &e.Category); err != nil {
			return nil, storeErr("scan expense", err)
		}
		out = append(out, e)
	}
	return out, storeErr("list expenses", rows.Err())
}

// ListOrders returns all standalone orders.
func (r *Repository) ListOrders(ctx context.Context) ([]billing.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, invoice_number, item_description, tracking_id,
			selling_price_lyd, purchase_price_usd, exchange_rate,
			shipping_cost_lyd, remaining_amount, status, operation_date
		FROM orders ORDER BY operation_date`)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	defer rows.Close()

	var out []billing.Order
	for rows.Next() {
		var o billing.Order
		err := rows.Scan(
			&o.ID, &o.UserID, &o.InvoiceNumber, &o.ItemDescription, &o.TrackingID,
			&o.SellingPriceLYD, &o.PurchasePriceUSD, &o.ExchangeRate,
			&o.ShippingCostLYD, &o.RemainingAmount, &o.Status, &o.OperationDate,
		)
		if err != nil {
			return nil, storeErr("scan order", err)
		}
		out = append(out, o)
	}
	return out, storeErr("list orders", rows.Err())
}

// ListGroupedOrders returns the grouped invoices without their sub-orders;
// aggregation only needs the derived parent figures.
func (r *Repository) ListGroupedOrders(ctx context.Context) ([]billing.GroupedOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_name, status, total_amount, remaining_amount, created_at
		FROM grouped_orders ORDER BY created_at`)
	if err != nil {
		return nil, storeErr("list grouped orders", err)
	}
	defer rows.Close()

	var out []billing.GroupedOrder
	for rows.Next() {
		var g billing.GroupedOrder
		err := rows.Scan(&g.ID, &g.InvoiceName, &g.Status, &g.TotalAmount, &g.RemainingAmount, &g.CreatedAt)
		if err != nil {
			return nil, storeErr("scan grouped order", err)
		}
		out = append(out, g)
	}
	return out, storeErr("list grouped orders", rows.Err())
}

// ListCreditors returns external creditor balances.
func (r *Repository) ListCreditors(ctx context.Context) ([]billing.Creditor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, total_debt FROM creditors ORDER BY name`)
	if err != nil {
		return nil, storeErr("list creditors", err)
	}
	defer rows.Close()

	var out []billing.Creditor
	for rows.Next() {
		var c billing.Creditor
		if err := rows.Scan(&c.ID, &c.Name, &c.TotalDebt); err != nil {
			return nil, storeErr("scan creditor", err)
		}
		out = append(out, c)
	}
	return out, storeErr("list creditors", rows.Err())
}
