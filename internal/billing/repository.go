package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweelsys/fawtara/internal/platform/db"
	"github.com/tamweelsys/fawtara/internal/shared"
)

// Repository provides PostgreSQL backed persistence for billing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const groupedOrderColumns = `
	id, invoice_name, assigned_user_id, assigned_user_name,
	status, total_amount, remaining_amount, version, created_at, updated_at`

const subOrderColumns = `
	id, grouped_order_id, customer_name, customer_phone, customer_address,
	item_description, tracking_id, selling_price_lyd, remaining_amount,
	representative_id, representative_name, shipment_status, operation_date`

// storeErr classifies a raw driver failure as a retryable store outage.
// Domain sentinels never pass through here; callers map those first.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("billing: %s: %v: %w", op, err, shared.ErrStoreUnavailable)
}

// GetGroupedOrder retrieves a grouped order with its sub-orders, kept in
// insertion order via the position column.
func (r *Repository) GetGroupedOrder(ctx context.Context, id string) (*GroupedOrder, error) {
	query := `SELECT ` + groupedOrderColumns + ` FROM grouped_orders WHERE id = $1`

	var g GroupedOrder
	var assignedID, assignedName pgtype.Text
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.InvoiceName, &assignedID, &assignedName,
		&g.Status, &g.TotalAmount, &g.RemainingAmount, &g.Version,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("billing: grouped order %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get grouped order", err)
	}
	if assignedID.Valid {
		g.AssignedUserID = &assignedID.String
	}
	if assignedName.Valid {
		g.AssignedUserName = &assignedName.String
	}

	g.SubOrders, err = r.listSubOrders(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroupedOrders returns all grouped orders, newest first.
func (r *Repository) ListGroupedOrders(ctx context.Context) ([]GroupedOrder, error) {
	query := `SELECT ` + groupedOrderColumns + ` FROM grouped_orders ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list grouped orders", err)
	}
	defer rows.Close()

	var out []GroupedOrder
	for rows.Next() {
		var g GroupedOrder
		var assignedID, assignedName pgtype.Text
		err := rows.Scan(
			&g.ID, &g.InvoiceName, &assignedID, &assignedName,
			&g.Status, &g.TotalAmount, &g.RemainingAmount, &g.Version,
			&g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			return nil, storeErr("scan grouped order", err)
		}
		if assignedID.Valid {
			g.AssignedUserID = &assignedID.String
		}
		if assignedName.Valid {
			g.AssignedUserName = &assignedName.String
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list grouped orders", err)
	}

	for i := range out {
		out[i].SubOrders, err = r.listSubOrders(ctx, r.pool, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CreateGroupedOrder inserts the grouped order and its sub-orders in one
// transaction.
func (r *Repository) CreateGroupedOrder(ctx context.Context, g GroupedOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO grouped_orders (
				id, invoice_name, assigned_user_id, assigned_user_name,
				status, total_amount, remaining_amount, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			g.ID, g.InvoiceName, g.AssignedUserID, g.AssignedUserName,
			g.Status, g.TotalAmount, g.RemainingAmount, g.Version,
			g.CreatedAt, g.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("billing: grouped order %s already exists: %w", g.ID, shared.ErrConflict)
		}
		if err != nil {
			return storeErr("insert grouped order", err)
		}
		return insertSubOrders(ctx, tx, g.ID, g.SubOrders)
	})
}

// UpdateGroupedOrder rewrites the grouped order and its sub-orders,
// conditioned on the version the caller read. The version check is the
// only concurrency control: a mismatch means another writer got there
// first and the caller must re-read and retry.
func (r *Repository) UpdateGroupedOrder(ctx context.Context, g GroupedOrder, record *Transaction) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE grouped_orders
			SET invoice_name = $2, assigned_user_id = $3, assigned_user_name = $4,
				status = $5, total_amount = $6, remaining_amount = $7,
				version = version + 1, updated_at = $8
			WHERE id = $1 AND version = $9`,
			g.ID, g.InvoiceName, g.AssignedUserID, g.AssignedUserName,
			g.Status, g.TotalAmount, g.RemainingAmount, g.UpdatedAt, g.Version,
		)
		if err != nil {
			return storeErr("update grouped order", err)
		}
		if result.RowsAffected() == 0 {
			// Distinguish a missing row from a stale version.
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM grouped_orders WHERE id = $1)`, g.ID,
			).Scan(&exists); err != nil {
				return storeErr("check grouped order", err)
			}
			if !exists {
				return fmt.Errorf("billing: grouped order %s: %w", g.ID, shared.ErrNotFound)
			}
			return fmt.Errorf("billing: grouped order %s version %d is stale: %w", g.ID, g.Version, shared.ErrConflict)
		}

		// Sub-orders are replaced wholesale; their ids are stable so the
		// delete-and-reinsert stays invisible to readers outside the tx.
		if _, err := tx.Exec(ctx, `DELETE FROM sub_orders WHERE grouped_order_id = $1`, g.ID); err != nil {
			return storeErr("replace sub orders", err)
		}
		if err := insertSubOrders(ctx, tx, g.ID, g.SubOrders); err != nil {
			return err
		}

		if record != nil {
			return insertTransaction(ctx, tx, *record)
		}
		return nil
	})
}

// DeleteGroupedOrder removes the grouped order; sub-orders cascade at the
// schema level. Transactions referencing it are intentionally left behind.
func (r *Repository) DeleteGroupedOrder(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM grouped_orders WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete grouped order", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("billing: grouped order %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ListOrdersByUser returns a registered user's standalone orders.
func (r *Repository) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, user_id, invoice_number, item_description, tracking_id,
			selling_price_lyd, purchase_price_usd, exchange_rate,
			shipping_cost_lyd, remaining_amount, status, operation_date
		FROM orders
		WHERE user_id = $1
		ORDER BY operation_date DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("list orders by user", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// FindOrdersByTracking returns standalone orders matching a tracking id.
func (r *Repository) FindOrdersByTracking(ctx context.Context, trackingID string) ([]Order, error) {
	query := `
		SELECT id, user_id, invoice_number, item_description, tracking_id,
			selling_price_lyd, purchase_price_usd, exchange_rate,
			shipping_cost_lyd, remaining_amount, status, operation_date
		FROM orders
		WHERE tracking_id = $1
		ORDER BY operation_date DESC`

	rows, err := r.pool.Query(ctx, query, trackingID)
	if err != nil {
		return nil, storeErr("find orders by tracking", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// FindSubOrdersByTracking returns sub-orders matching a tracking id, joined
// with the parent invoice identity.
func (r *Repository) FindSubOrdersByTracking(ctx context.Context, trackingID string) ([]TrackedSubOrder, error) {
	query := `
		SELECT s.id, s.customer_name, s.customer_phone, s.customer_address,
			s.item_description, s.tracking_id, s.selling_price_lyd,
			s.remaining_amount, s.representative_id, s.representative_name,
			s.shipment_status, s.operation_date,
			g.id, g.invoice_name
		FROM sub_orders s
		JOIN grouped_orders g ON g.id = s.grouped_order_id
		WHERE s.tracking_id = $1
		ORDER BY s.operation_date DESC`

	rows, err := r.pool.Query(ctx, query, trackingID)
	if err != nil {
		return nil, storeErr("find sub orders by tracking", err)
	}
	defer rows.Close()

	var out []TrackedSubOrder
	for rows.Next() {
		var t TrackedSubOrder
		var repID, repName pgtype.Text
		err := rows.Scan(
			&t.SubOrderID, &t.CustomerName, &t.CustomerPhone, &t.CustomerAddress,
			&t.ItemDescription, &t.TrackingID, &t.SellingPriceLYD,
			&t.RemainingAmount, &repID, &repName,
			&t.ShipmentStatus, &t.OperationDate,
			&t.GroupedOrderID, &t.InvoiceName,
		)
		if err != nil {
			return nil, storeErr("scan tracked sub order", err)
		}
		if repID.Valid {
			t.RepresentativeID = &repID.String
		}
		if repName.Valid {
			t.RepresentativeName = &repName.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find sub orders by tracking", err)
	}
	return out, nil
}

// --- Helpers ---

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) listSubOrders(ctx context.Context, q querier, groupedID string) ([]SubOrder, error) {
	query := `SELECT ` + subOrderColumns + ` FROM sub_orders WHERE grouped_order_id = $1 ORDER BY position`

	rows, err := q.Query(ctx, query, groupedID)
	if err != nil {
		return nil, storeErr("list sub orders", err)
	}
	defer rows.Close()

	var out []SubOrder
	for rows.Next() {
		var so SubOrder
		var parentID string
		var repID, repName pgtype.Text
		err := rows.Scan(
			&so.SubOrderID, &parentID, &so.CustomerName, &so.CustomerPhone,
			&so.CustomerAddress, &so.ItemDescription, &so.TrackingID,
			&so.SellingPriceLYD, &so.RemainingAmount,
			&repID, &repName, &so.ShipmentStatus, &so.OperationDate,
		)
		if err != nil {
			return nil, storeErr("scan sub order", err)
		}
		if repID.Valid {
			so.RepresentativeID = &repID.String
		}
		if repName.Valid {
			so.RepresentativeName = &repName.String
		}
		out = append(out, so)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list sub orders", err)
	}
	return out, nil
}

func insertSubOrders(ctx context.Context, tx pgx.Tx, groupedID string, subOrders []SubOrder) error {
	for i, so := range subOrders {
		_, err := tx.Exec(ctx, `
			INSERT INTO sub_orders (
				id, grouped_order_id, position, customer_name, customer_phone,
				customer_address, item_description, tracking_id,
				selling_price_lyd, remaining_amount,
				representative_id, representative_name, shipment_status, operation_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			so.SubOrderID, groupedID, i, so.CustomerName, so.CustomerPhone,
			so.CustomerAddress, so.ItemDescription, so.TrackingID,
			so.SellingPriceLYD, so.RemainingAmount,
			so.RepresentativeID, so.RepresentativeName, so.ShipmentStatus, so.OperationDate,
		)
		if err != nil {
			return storeErr("insert sub order", err)
		}
	}
	return nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, record Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, customer_ref, type, amount, date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.Customer.String(), record.Type, record.Amount, record.Date, record.Notes,
	)
	return storeErr("insert transaction", err)
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		var o Order
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
	if err := rows.Err(); err != nil {
		return nil, storeErr("list orders", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
