// Package memory implements the order store on plain maps. A single
// mutex serializes units of work, and a copy of the state taken at tx
// start is restored on error, so failed operations roll back exactly
// like the SQL store. Used by tests and local runs without Postgres.
package memory

import (
	"context"
	"sync"

	"bookshop/internal/orders"
)

type Store struct {
	mu       sync.Mutex
	books    map[string]orders.Book
	orders   map[string]orders.Order
	items    map[string]orders.OrderItem
	payments map[string]orders.Payment
}

var _ orders.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		books:    make(map[string]orders.Book),
		orders:   make(map[string]orders.Order),
		items:    make(map[string]orders.OrderItem),
		payments: make(map[string]orders.Payment),
	}
}

// PutBook seeds or replaces a catalog row.
func (s *Store) PutBook(b orders.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = b
}

// Book reads a catalog row back, for assertions on stock.
func (s *Store) Book(id string) (orders.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	return b, ok
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&tx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type state struct {
	books    map[string]orders.Book
	orders   map[string]orders.Order
	items    map[string]orders.OrderItem
	payments map[string]orders.Payment
}

func (s *Store) snapshot() state {
	cp := state{
		books:    make(map[string]orders.Book, len(s.books)),
		orders:   make(map[string]orders.Order, len(s.orders)),
		items:    make(map[string]orders.OrderItem, len(s.items)),
		payments: make(map[string]orders.Payment, len(s.payments)),
	}
	for k, v := range s.books {
		cp.books[k] = v
	}
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	for k, v := range s.items {
		cp.items[k] = v
	}
	for k, v := range s.payments {
		cp.payments[k] = v
	}
	return cp
}

func (s *Store) restore(snap state) {
	s.books = snap.books
	s.orders = snap.orders
	s.items = snap.items
	s.payments = snap.payments
}

func (s *Store) Order(ctx context.Context, orderID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	o.Items = s.itemsOf(orderID)
	return o, nil
}

func (s *Store) Orders(ctx context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Order, 0, len(s.orders))
	for _, o := range s.orders {
		o.Items = s.itemsOf(o.ID)
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) Payment(ctx context.Context, paymentID string) (orders.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return orders.Payment{}, orders.ErrPaymentNotFound
	}
	return p, nil
}

func (s *Store) itemsOf(orderID string) []orders.OrderItem {
	var out []orders.OrderItem
	for _, it := range s.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

// tx mutates the store maps directly; WithinTx holds the lock and
// restores the snapshot when the callback fails.
type tx struct {
	s *Store
}

func (t *tx) BookForUpdate(ctx context.Context, bookID string) (orders.Book, error) {
	b, ok := t.s.books[bookID]
	if !ok {
		return orders.Book{}, orders.ErrBookNotFound
	}
	return b, nil
}

func (t *tx) AdjustStock(ctx context.Context, bookID string, delta int) error {
	b, ok := t.s.books[bookID]
	if !ok {
		return orders.ErrBookNotFound
	}
	b.Stock += delta
	t.s.books[bookID] = b
	return nil
}

func (t *tx) InsertOrder(ctx context.Context, o orders.Order) error {
	o.Items = nil
	t.s.orders[o.ID] = o
	return nil
}

func (t *tx) GetOrder(ctx context.Context, orderID string) (orders.Order, error) {
	o, ok := t.s.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (t *tx) AdjustOrderTotal(ctx context.Context, orderID string, deltaCents int64) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.TotalCents += deltaCents
	t.s.orders[orderID] = o
	return nil
}

func (t *tx) UpdateOrder(ctx context.Context, orderID string, u orders.OrderUpdate) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if u.CustomerID != nil {
		o.CustomerID = *u.CustomerID
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	t.s.orders[orderID] = o
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, ok := t.s.orders[orderID]; !ok {
		return orders.ErrOrderNotFound
	}
	delete(t.s.orders, orderID)
	for id, it := range t.s.items {
		if it.OrderID == orderID {
			delete(t.s.items, id)
		}
	}
	return nil
}

func (t *tx) InsertItem(ctx context.Context, it orders.OrderItem) error {
	t.s.items[it.ID] = it
	return nil
}

func (t *tx) GetItem(ctx context.Context, itemID string) (orders.OrderItem, error) {
	it, ok := t.s.items[itemID]
	if !ok {
		return orders.OrderItem{}, orders.ErrItemNotFound
	}
	return it, nil
}

func (t *tx) UpdateItemQty(ctx context.Context, itemID string, qty int) error {
	it, ok := t.s.items[itemID]
	if !ok {
		return orders.ErrItemNotFound
	}
	it.Qty = qty
	t.s.items[itemID] = it
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, itemID string) error {
	if _, ok := t.s.items[itemID]; !ok {
		return orders.ErrItemNotFound
	}
	delete(t.s.items, itemID)
	return nil
}

func (t *tx) ItemsByOrder(ctx context.Context, orderID string) ([]orders.OrderItem, error) {
	return t.s.itemsOf(orderID), nil
}

func (t *tx) InsertPayment(ctx context.Context, p orders.Payment) error {
	t.s.payments[p.ID] = p
	return nil
}

func (t *tx) GetPayment(ctx context.Context, paymentID string) (orders.Payment, error) {
	p, ok := t.s.payments[paymentID]
	if !ok {
		return orders.Payment{}, orders.ErrPaymentNotFound
	}
	return p, nil
}

func (t *tx) UpdatePaymentStatus(ctx context.Context, paymentID string, status orders.PaymentStatus) error {
	p, ok := t.s.payments[paymentID]
	if !ok {
		return orders.ErrPaymentNotFound
	}
	p.Status = status
	t.s.payments[paymentID] = p
	return nil
}
