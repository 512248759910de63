// Package billing implements grouped invoices, sub-order balances, the
// payment allocator, and the order lifecycle.
package billing

import (
	"strings"
	"time"
)

// OrderStatus represents the lifecycle of an order or sub-order shipment.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusProcessed       OrderStatus = "processed"
	StatusReady           OrderStatus = "ready"
	StatusShipped         OrderStatus = "shipped"
	StatusArrivedDubai    OrderStatus = "arrived_dubai"
	StatusArrivedBenghazi OrderStatus = "arrived_benghazi"
	StatusArrivedTobruk   OrderStatus = "arrived_tobruk"
	StatusOutForDelivery  OrderStatus = "out_for_delivery"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
	StatusPaid            OrderStatus = "paid"
)

// IsValid checks if the status is a known value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusReady, StatusShipped,
		StatusArrivedDubai, StatusArrivedBenghazi, StatusArrivedTobruk,
		StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusPaid:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusPaid
}

// CanTransition reports whether moving from s to next is allowed. The
// progression is a recommended ordering rather than a strict automaton, so
// skipping forward or stepping back is permitted; the only hard rule is
// that terminal states are final.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return s == next
	}
	return true
}

// TransactionType classifies financial events.
type TransactionType string

const (
	TxPayment    TransactionType = "payment"
	TxCharge     TransactionType = "charge"
	TxAdjustment TransactionType = "adjustment"
)

// guestRefPrefix marks transactions belonging to a grouped-order customer
// rather than a registered user. The prefix is a legacy wire convention;
// inside the domain a CustomerRef carries the distinction as a tag.
const guestRefPrefix = "TEMP-"

// CustomerRef identifies either a registered user or a guest invoice
// recipient tracked through a grouped order.
type CustomerRef struct {
	userID         string
	groupedOrderID string
}

// RegisteredCustomer builds a reference to a registered user.
func RegisteredCustomer(userID string) CustomerRef {
	return CustomerRef{userID: userID}
}

// GuestCustomer builds a reference to a grouped-order (guest) customer.
func GuestCustomer(groupedOrderID string) CustomerRef {
	return CustomerRef{groupedOrderID: groupedOrderID}
}

// ParseCustomerRef decodes the stored string form of a reference.
func ParseCustomerRef(raw string) CustomerRef {
	if rest, ok := strings.CutPrefix(raw, guestRefPrefix); ok {
		return GuestCustomer(rest)
	}
	return RegisteredCustomer(raw)
}

// IsGuest reports whether the reference points at a grouped-order customer.
func (r CustomerRef) IsGuest() bool {
	return r.groupedOrderID != ""
}

// UserID returns the registered user id, or "" for guest references.
func (r CustomerRef) UserID() string {
	return r.userID
}

// GroupedOrderID returns the grouped order id, or "" for registered users.
func (r CustomerRef) GroupedOrderID() string {
	return r.groupedOrderID
}

// String renders the stored wire form of the reference.
func (r CustomerRef) String() string {
	if r.IsGuest() {
		return guestRefPrefix + r.groupedOrderID
	}
	return r.userID
}

// SubOrder is one customer's line inside a grouped invoice, with its own
// balance and shipment status.
type SubOrder struct {
	SubOrderID         string      `json:"sub_order_id"`
	CustomerName       string      `json:"customer_name"`
	CustomerPhone      string      `json:"customer_phone,omitempty"`
	CustomerAddress    string      `json:"customer_address,omitempty"`
	ItemDescription    string      `json:"item_description,omitempty"`
	TrackingID         string      `json:"tracking_id,omitempty"`
	SellingPriceLYD    float64     `json:"selling_price_lyd"`
	RemainingAmount    float64     `json:"remaining_amount"`
	RepresentativeID   *string     `json:"representative_id,omitempty"`
	RepresentativeName *string     `json:"representative_name,omitempty"`
	ShipmentStatus     OrderStatus `json:"shipment_status"`
	OperationDate      time.Time   `json:"operation_date"`
}

// GroupedOrder bundles sub-orders under one invoice identity. TotalAmount
// and RemainingAmount are derived from the sub-orders and must only be
// written by RecomputeTotals.
type GroupedOrder struct {
	ID               string      `json:"id"`
	InvoiceName      string      `json:"invoice_name"`
	AssignedUserID   *string     `json:"assigned_user_id,omitempty"`
	AssignedUserName *string     `json:"assigned_user_name,omitempty"`
	SubOrders        []SubOrder  `json:"sub_orders"`
	Status           OrderStatus `json:"status"`
	TotalAmount      float64     `json:"total_amount"`
	RemainingAmount  float64     `json:"remaining_amount"`
	Version          int64       `json:"version"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// subOrderIndex returns the position of a sub-order, or -1 when absent.
func (g *GroupedOrder) subOrderIndex(subOrderID string) int {
	for i := range g.SubOrders {
		if g.SubOrders[i].SubOrderID == subOrderID {
			return i
		}
	}
	return -1
}

// Order is a standalone (non-grouped) order carrying the cost-of-goods
// fields used by financial aggregation.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	InvoiceNumber    string      `json:"invoice_number"`
	ItemDescription  string      `json:"item_description,omitempty"`
	TrackingID       string      `json:"tracking_id,omitempty"`
	SellingPriceLYD  float64     `json:"selling_price_lyd"`
	PurchasePriceUSD float64     `json:"purchase_price_usd"`
	// ExchangeRate is the USD→LYD rate snapshotted when the order was
	// created; historical profit figures stay stable against later changes.
	ExchangeRate    float64     `json:"exchange_rate"`
	ShippingCostLYD float64     `json:"shipping_cost_lyd"`
	RemainingAmount float64     `json:"remaining_amount"`
	Status          OrderStatus `json:"status"`
	OperationDate   time.Time   `json:"operation_date"`
}

// PurchaseCostLYD converts the purchase price using the snapshotted rate.
func (o Order) PurchaseCostLYD() float64 {
	return o.PurchasePriceUSD * o.ExchangeRate
}

// GrossProfit is selling price minus converted purchase cost minus shipping.
func (o Order) GrossProfit() float64 {
	return o.SellingPriceLYD - o.PurchaseCostLYD() - o.ShippingCostLYD
}

// Transaction is an immutable financial event.
type Transaction struct {
	ID       string          `json:"id"`
	Customer CustomerRef     `json:"-"`
	Type     TransactionType `json:"type"`
	Amount   float64         `json:"amount"`
	Date     time.Time       `json:"date"`
	Notes    string          `json:"notes,omitempty"`
}

// Expense is a dated cost entry, purely additive against profit.
type Expense struct {
	ID       string    `json:"id"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Category string    `json:"category,omitempty"`
}

// Creditor tracks external company debt, surfaced in the debt overview.
type Creditor struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	TotalDebt float64 `json:"total_debt"`
}
