package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orchestrates order, item and payment changes. Every mutating
// operation runs as one unit of work: stock, item rows and the order
// total move in lock-step or not at all.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// ItemInput is one requested line of a new order. PriceCents pins the
// unit price explicitly; nil means capture the current catalog price.
type ItemInput struct {
	BookID     string
	Qty        int
	PriceCents *int64
}

// CreateOrder reserves stock for every requested line, inserts the order
// and its items, and returns the hydrated aggregate. Any line failing
// reservation aborts the whole operation; no partial order is left.
func (s *Service) CreateOrder(ctx context.Context, customerID string, items []ItemInput) (Order, error) {
	if customerID == "" {
		return Order{}, validationf("customer_id is required")
	}
	if len(items) == 0 {
		return Order{}, validationf("order needs at least one item")
	}
	for _, it := range items {
		if it.Qty <= 0 {
			return Order{}, validationf("quantity must be positive for book %s", it.BookID)
		}
		if it.PriceCents != nil && *it.PriceCents <= 0 {
			return Order{}, validationf("pinned price must be positive for book %s", it.BookID)
		}
	}

	o := Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Status:     StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		var total int64
		for _, in := range items {
			b, err := reserve(ctx, tx, in.BookID, in.Qty)
			if err != nil {
				return err
			}
			price := b.PriceCents
			if in.PriceCents != nil {
				price = *in.PriceCents
			}
			it := OrderItem{
				ID:         uuid.NewString(),
				OrderID:    o.ID,
				BookID:     in.BookID,
				Qty:        in.Qty,
				PriceCents: price,
			}
			if err := tx.InsertItem(ctx, it); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
			total += it.Subtotal()
		}
		if err := tx.AdjustOrderTotal(ctx, o.ID, total); err != nil {
			return err
		}
		o.TotalCents = total
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("customer_id", customerID),
		zap.Int("items", len(o.Items)),
		zap.Int64("total_cents", o.TotalCents))
	return o, nil
}

// AddItem reserves stock, inserts a line at the current catalog price
// and raises the order total by qty x price.
func (s *Service) AddItem(ctx context.Context, orderID, bookID string, qty int) (OrderItem, error) {
	if qty <= 0 {
		return OrderItem{}, validationf("quantity must be positive")
	}
	var it OrderItem
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.GetOrder(ctx, orderID); err != nil {
			return err
		}
		b, err := reserve(ctx, tx, bookID, qty)
		if err != nil {
			return err
		}
		it = OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			BookID:     bookID,
			Qty:        qty,
			PriceCents: b.PriceCents,
		}
		if err := tx.InsertItem(ctx, it); err != nil {
			return err
		}
		return tx.AdjustOrderTotal(ctx, orderID, it.Subtotal())
	})
	if err != nil {
		return OrderItem{}, err
	}
	s.log.Info("item added", zap.String("order_id", orderID), zap.String("item_id", it.ID), zap.Int("qty", qty))
	return it, nil
}

// UpdateItemQty changes a line's quantity, settling the stock delta
// against the book and the subtotal delta against the order total. The
// captured unit price is never re-read from the catalog.
func (s *Service) UpdateItemQty(ctx context.Context, itemID string, newQty int) (OrderItem, error) {
	if newQty <= 0 {
		return OrderItem{}, validationf("quantity must be positive; delete the item instead")
	}
	var it OrderItem
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		it, err = tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		delta := newQty - it.Qty
		if delta == 0 {
			return nil
		}
		if delta > 0 {
			if _, err := reserve(ctx, tx, it.BookID, delta); err != nil {
				return err
			}
		} else {
			if err := release(ctx, tx, it.BookID, -delta); err != nil {
				return err
			}
		}
		if err := tx.UpdateItemQty(ctx, itemID, newQty); err != nil {
			return err
		}
		if err := tx.AdjustOrderTotal(ctx, it.OrderID, int64(delta)*it.PriceCents); err != nil {
			return err
		}
		it.Qty = newQty
		return nil
	})
	if err != nil {
		return OrderItem{}, err
	}
	s.log.Info("item quantity updated", zap.String("item_id", itemID), zap.Int("qty", newQty))
	return it, nil
}

// DeleteItem removes a line, releasing its stock and lowering the order
// total by its subtotal.
func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		it, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := release(ctx, tx, it.BookID, it.Qty); err != nil {
			return err
		}
		if err := tx.AdjustOrderTotal(ctx, it.OrderID, -it.Subtotal()); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, itemID)
	})
	if err != nil {
		return err
	}
	s.log.Info("item deleted", zap.String("item_id", itemID))
	return nil
}

// DeleteOrder releases reserved stock for every live item, then removes
// the items and the order in the same transaction.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.GetOrder(ctx, orderID); err != nil {
			return err
		}
		items, err := tx.ItemsByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := release(ctx, tx, it.BookID, it.Qty); err != nil {
				return err
			}
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.log.Info("order deleted", zap.String("order_id", orderID))
	return nil
}

// OrderUpdate is the allow-list of mutable order fields; nil means keep.
// total_amount is deliberately absent: it only moves with item changes,
// keeping the sum-of-items invariant intact.
type OrderUpdate struct {
	CustomerID *string
	Status     *Status
}

// UpdateOrder applies the allow-listed field changes. Status values are
// checked for membership only; transition rules belong to the fulfilment
// workflow.
func (s *Service) UpdateOrder(ctx context.Context, orderID string, u OrderUpdate) (Order, error) {
	if u.CustomerID == nil && u.Status == nil {
		return Order{}, validationf("no fields to update")
	}
	if u.CustomerID != nil && *u.CustomerID == "" {
		return Order{}, validationf("customer_id cannot be empty")
	}
	if u.Status != nil && !u.Status.Valid() {
		return Order{}, validationf("unknown order status %q", *u.Status)
	}
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.GetOrder(ctx, orderID); err != nil {
			return err
		}
		return tx.UpdateOrder(ctx, orderID, u)
	})
	if err != nil {
		return Order{}, err
	}
	o, err := s.store.Order(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	s.log.Info("order updated", zap.String("order_id", orderID), zap.String("status", string(o.Status)))
	return o, nil
}

type PaymentInput struct {
	OrderID        string
	AmountCents    int64
	Method         PaymentMethod
	Status         PaymentStatus
	TransactionRef string
}

// RecordPayment appends a payment row after validating the amount
// against the order's current total. Each payment is checked against the
// full total independently; paid-so-far is not tracked.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (Payment, error) {
	if in.AmountCents <= 0 {
		return Payment{}, validationf("amount must be positive")
	}
	if !in.Method.Valid() {
		return Payment{}, validationf("unknown payment method %q", in.Method)
	}
	if !in.Status.Valid() {
		return Payment{}, validationf("unknown payment status %q", in.Status)
	}
	p := Payment{
		ID:             uuid.NewString(),
		OrderID:        in.OrderID,
		Method:         in.Method,
		AmountCents:    in.AmountCents,
		Status:         in.Status,
		TransactionRef: in.TransactionRef,
		CreatedAt:      s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if in.AmountCents > o.TotalCents {
			return &AmountExceedsTotalError{OrderID: o.ID, AmountCents: in.AmountCents, TotalCents: o.TotalCents}
		}
		return tx.InsertPayment(ctx, p)
	})
	if err != nil {
		return Payment{}, err
	}
	s.log.Info("payment recorded",
		zap.String("payment_id", p.ID),
		zap.String("order_id", p.OrderID),
		zap.Int64("amount_cents", p.AmountCents),
		zap.String("method", string(p.Method)))
	return p, nil
}

// UpdatePaymentStatus changes the one mutable field of a payment row.
func (s *Service) UpdatePaymentStatus(ctx context.Context, paymentID string, status PaymentStatus) (Payment, error) {
	if !status.Valid() {
		return Payment{}, validationf("unknown payment status %q", status)
	}
	var p Payment
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := tx.UpdatePaymentStatus(ctx, paymentID, status); err != nil {
			return err
		}
		p.Status = status
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	s.log.Info("payment status updated", zap.String("payment_id", paymentID), zap.String("status", string(status)))
	return p, nil
}

// Order returns the hydrated aggregate.
func (s *Service) Order(ctx context.Context, orderID string) (Order, error) {
	return s.store.Order(ctx, orderID)
}

// Orders lists all orders with their items.
func (s *Service) Orders(ctx context.Context) ([]Order, error) {
	return s.store.Orders(ctx)
}

// Payment returns one payment row.
func (s *Service) Payment(ctx context.Context, paymentID string) (Payment, error) {
	return s.store.Payment(ctx, paymentID)
}
