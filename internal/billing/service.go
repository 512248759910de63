package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tamweelsys/fawtara/internal/shared"
)

// maxWriteAttempts bounds the optimistic-concurrency retry loop. Every
// mutation re-reads the grouped order, recomputes, and writes conditioned
// on the version it read; a version mismatch restarts the whole cycle.
const maxWriteAttempts = 3

// RepositoryPort defines data access methods for billing.
type RepositoryPort interface {
	GetGroupedOrder(ctx context.Context, id string) (*GroupedOrder, error)
	ListGroupedOrders(ctx context.Context) ([]GroupedOrder, error)
	CreateGroupedOrder(ctx context.Context, g GroupedOrder) error
	// UpdateGroupedOrder persists the grouped order and its sub-orders in
	// one transaction, conditioned on g.Version matching the stored row.
	// When record is non-nil it is inserted in the same transaction so a
	// payment never lands without its audit entry.
	UpdateGroupedOrder(ctx context.Context, g GroupedOrder, record *Transaction) error
	DeleteGroupedOrder(ctx context.Context, id string) error
	ListOrdersByUser(ctx context.Context, userID string) ([]Order, error)
	FindOrdersByTracking(ctx context.Context, trackingID string) ([]Order, error)
	FindSubOrdersByTracking(ctx context.Context, trackingID string) ([]TrackedSubOrder, error)
}

// Representative is the delivery agent a sub-order can be assigned to.
type Representative struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackedSubOrder is a sub-order joined with its parent invoice identity
// for shipment tracking lookups.
type TrackedSubOrder struct {
	GroupedOrderID string `json:"grouped_order_id"`
	InvoiceName    string `json:"invoice_name"`
	SubOrder
}

// TrackingResult aggregates everything matching a tracking id.
type TrackingResult struct {
	Orders    []Order           `json:"orders"`
	SubOrders []TrackedSubOrder `json:"sub_orders"`
}

// UserSummary condenses a registered user's non-cancelled orders.
type UserSummary struct {
	UserID         string     `json:"user_id"`
	OrderCount     int        `json:"order_count"`
	TotalValueLYD  float64    `json:"total_value_lyd"`
	OutstandingLYD float64    `json:"outstanding_lyd"`
	LastOperation  *time.Time `json:"last_operation,omitempty"`
}

// CreateSubOrderInput describes one sub-order at invoice creation.
type CreateSubOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	ItemDescription string
	TrackingID      string
	SellingPriceLYD float64
}

// CreateGroupedOrderInput describes a new grouped invoice.
type CreateGroupedOrderInput struct {
	InvoiceName      string
	AssignedUserID   *string
	AssignedUserName *string
	SubOrders        []CreateSubOrderInput
}

// CacheInvalidator lets billing writes flush downstream aggregate caches
// without depending on the aggregation package.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles billing business logic.
type Service struct {
	repo        RepositoryPort
	invalidator CacheInvalidator
	now         func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock, primarily for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithInvalidator attaches a cache invalidator bumped after every write.
func (s *Service) WithInvalidator(inv CacheInvalidator) *Service {
	s.invalidator = inv
	return s
}

// Invalidation is best effort: a failed bump leaves stale aggregates until
// TTL expiry, which beats failing the write that already committed.
func (s *Service) bumpCaches(ctx context.Context) {
	if s.invalidator != nil {
		_ = s.invalidator.Bump(ctx)
	}
}

// CreateGroupedOrder creates a grouped invoice. Every sub-order starts
// fully unpaid (remaining = selling price) in the pending state.
func (s *Service) CreateGroupedOrder(ctx context.Context, input CreateGroupedOrderInput) (*GroupedOrder, error) {
	if input.InvoiceName == "" {
		return nil, fmt.Errorf("billing: invoice name required: %w", shared.ErrInvariantViolation)
	}
	if len(input.SubOrders) == 0 {
		return nil, fmt.Errorf("billing: at least one sub-order required: %w", shared.ErrInvariantViolation)
	}

	now := s.now()
	g := GroupedOrder{
		ID:               uuid.NewString(),
		InvoiceName:      input.InvoiceName,
		AssignedUserID:   input.AssignedUserID,
		AssignedUserName: input.AssignedUserName,
		Status:           StatusPending,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, in := range input.SubOrders {
		if in.CustomerName == "" {
			return nil, fmt.Errorf("billing: sub-order customer name required: %w", shared.ErrInvariantViolation)
		}
		if in.SellingPriceLYD < 0 {
			return nil, fmt.Errorf("billing: selling price %.2f: %w", in.SellingPriceLYD, shared.ErrInvalidAmount)
		}
		g.SubOrders = append(g.SubOrders, SubOrder{
			SubOrderID:      uuid.NewString(),
			CustomerName:    in.CustomerName,
			CustomerPhone:   in.CustomerPhone,
			CustomerAddress: in.CustomerAddress,
			ItemDescription: in.ItemDescription,
			TrackingID:      in.TrackingID,
			SellingPriceLYD: in.SellingPriceLYD,
			RemainingAmount: in.SellingPriceLYD,
			ShipmentStatus:  StatusPending,
			OperationDate:   now,
		})
	}

	g, err := RecomputeTotals(g)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGroupedOrder(ctx, g); err != nil {
		return nil, err
	}
	s.bumpCaches(ctx)
	return &g, nil
}

// GetGroupedOrder returns one grouped invoice.
func (s *Service) GetGroupedOrder(ctx context.Context, id string) (*GroupedOrder, error) {
	return s.repo.GetGroupedOrder(ctx, id)
}

// ListGroupedOrders returns all grouped invoices.
func (s *Service) ListGroupedOrders(ctx context.Context) ([]GroupedOrder, error) {
	return s.repo.ListGroupedOrders(ctx)
}

// ApplyPayment applies a payment to exactly one sub-order, refreshes the
// parent totals through RecomputeTotals, and records one payment
// transaction under the grouped order's guest reference. The three writes
// land atomically; on failure no partial state is persisted.
//
// Overpayment is rejected: a payment larger than the sub-order's remaining
// balance fails with ErrInvariantViolation instead of driving the balance
// negative.
func (s *Service) ApplyPayment(ctx context.Context, groupedID, subOrderID string, amount float64, note string) (*GroupedOrder, *Transaction, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("billing: payment amount %.2f: %w", amount, shared.ErrInvalidAmount)
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		g, err := s.repo.GetGroupedOrder(ctx, groupedID)
		if err != nil {
			return nil, nil, err
		}
		i := g.subOrderIndex(subOrderID)
		if i < 0 {
			return nil, nil, fmt.Errorf("billing: sub-order %s: %w", subOrderID, shared.ErrNotFound)
		}
		so := &g.SubOrders[i]
		if so.RemainingAmount <= 0 {
			return nil, nil, fmt.Errorf("billing: sub-order %s: %w", subOrderID, shared.ErrAlreadySettled)
		}
		if amount > so.RemainingAmount {
			return nil, nil, fmt.Errorf(
				"billing: payment %.2f exceeds remaining %.2f on sub-order %s: %w",
				amount, so.RemainingAmount, subOrderID, shared.ErrInvariantViolation)
		}

		so.RemainingAmount -= amount
		updated, err := RecomputeTotals(*g)
		if err != nil {
			return nil, nil, err
		}
		updated.UpdatedAt = s.now()

		record := Transaction{
			ID:       uuid.NewString(),
			Customer: GuestCustomer(g.ID),
			Type:     TxPayment,
			Amount:   amount,
			Date:     s.now(),
			Notes:    note,
		}

		if err := s.repo.UpdateGroupedOrder(ctx, updated, &record); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}
		updated.Version++
		s.bumpCaches(ctx)
		return &updated, &record, nil
	}
	return nil, nil, lastErr
}

// UpdateStatus moves a grouped order to a new overall status. Terminal
// states are final; the remaining ordering is advisory and not enforced.
// Cancelling removes the order from every financial total downstream
// without deleting it.
func (s *Service) UpdateStatus(ctx context.Context, groupedID string, status OrderStatus) (*GroupedOrder, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("billing: unknown status %q: %w", status, shared.ErrInvariantViolation)
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		g, err := s.repo.GetGroupedOrder(ctx, groupedID)
		if err != nil {
			return nil, err
		}
		if !g.Status.CanTransition(status) {
			return nil, fmt.Errorf("billing: cannot leave terminal status %q: %w", g.Status, shared.ErrInvariantViolation)
		}
		g.Status = status
		updated, err := RecomputeTotals(*g)
		if err != nil {
			return nil, err
		}
		updated.UpdatedAt = s.now()

		if err := s.repo.UpdateGroupedOrder(ctx, updated, nil); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		updated.Version++
		s.bumpCaches(ctx)
		return &updated, nil
	}
	return nil, lastErr
}

// AssignRepresentative assigns or clears the delivery representative on a
// sub-order. Representative presence is the signal for "in transit to
// customer": assigning flips the shipment status to out_for_delivery,
// unassigning resets it to pending. The coupling lives here, once, instead
// of at every call site.
func (s *Service) AssignRepresentative(ctx context.Context, groupedID, subOrderID string, rep *Representative) (*GroupedOrder, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		g, err := s.repo.GetGroupedOrder(ctx, groupedID)
		if err != nil {
			return nil, err
		}
		i := g.subOrderIndex(subOrderID)
		if i < 0 {
			return nil, fmt.Errorf("billing: sub-order %s: %w", subOrderID, shared.ErrNotFound)
		}
		so := &g.SubOrders[i]
		if rep != nil {
			id, name := rep.ID, rep.Name
			so.RepresentativeID = &id
			so.RepresentativeName = &name
			so.ShipmentStatus = StatusOutForDelivery
		} else {
			so.RepresentativeID = nil
			so.RepresentativeName = nil
			so.ShipmentStatus = StatusPending
		}

		updated, err := RecomputeTotals(*g)
		if err != nil {
			return nil, err
		}
		updated.UpdatedAt = s.now()

		if err := s.repo.UpdateGroupedOrder(ctx, updated, nil); err != nil {
			if errors.Is(err, shared.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		updated.Version++
		s.bumpCaches(ctx)
		return &updated, nil
	}
	return nil, lastErr
}

// DeleteGroupedOrder hard-deletes the invoice and all sub-orders. Recorded
// payment transactions are kept to preserve audit history; the asymmetry
// with cancellation is intentional.
func (s *Service) DeleteGroupedOrder(ctx context.Context, id string) error {
	if err := s.repo.DeleteGroupedOrder(ctx, id); err != nil {
		return err
	}
	s.bumpCaches(ctx)
	return nil
}

// TrackShipment looks up standalone orders and sub-orders by tracking id.
func (s *Service) TrackShipment(ctx context.Context, trackingID string) (*TrackingResult, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("billing: tracking id required: %w", shared.ErrNotFound)
	}
	orders, err := s.repo.FindOrdersByTracking(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	subOrders, err := s.repo.FindSubOrdersByTracking(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 && len(subOrders) == 0 {
		return nil, fmt.Errorf("billing: tracking id %s: %w", trackingID, shared.ErrNotFound)
	}
	return &TrackingResult{Orders: orders, SubOrders: subOrders}, nil
}

// UserOrderSummary condenses a registered user's orders for the dashboard
// card: trade volume, outstanding debt, and last activity. Cancelled orders
// carry no financial weight and are skipped entirely.
func (s *Service) UserOrderSummary(ctx context.Context, userID string) (UserSummary, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}
	summary := UserSummary{UserID: userID}
	for _, o := range orders {
		if o.Status == StatusCancelled {
			continue
		}
		summary.OrderCount++
		summary.TotalValueLYD += o.SellingPriceLYD
		summary.OutstandingLYD += o.RemainingAmount
		if summary.LastOperation == nil || o.OperationDate.After(*summary.LastOperation) {
			op := o.OperationDate
			summary.LastOperation = &op
		}
	}
	return summary, nil
}
