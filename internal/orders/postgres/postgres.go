// Package postgres implements the order store on pgx. Each unit of work
// is one database transaction; book rows are locked with FOR UPDATE for
// the duration of the transaction that reserves their stock.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshop/internal/orders"
)

type Store struct {
	Pool *pgxpool.Pool
}

var _ orders.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store { return &Store{Pool: pool} }

func storage(op string, err error) error {
	return &orders.StorageError{Op: op, Err: err}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	dbtx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storage("begin tx", err)
	}
	defer func() { _ = dbtx.Rollback(ctx) }()

	if err := fn(&tx{db: dbtx}); err != nil {
		return err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return storage("commit", err)
	}
	return nil
}

func (s *Store) Order(ctx context.Context, orderID string) (orders.Order, error) {
	var o orders.Order
	err := s.Pool.QueryRow(ctx,
		`SELECT id, customer_id, status, total_cents, created_at FROM orders WHERE id=$1`,
		orderID).Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	if err != nil {
		return orders.Order{}, storage("get order", err)
	}
	o.Items, err = scanItems(s.Pool.Query(ctx,
		`SELECT id, order_id, book_id, qty, price_cents FROM order_items WHERE order_id=$1`,
		orderID))
	if err != nil {
		return orders.Order{}, storage("get order items", err)
	}
	return o, nil
}

func (s *Store) Orders(ctx context.Context) ([]orders.Order, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, customer_id, status, total_cents, created_at FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, storage("list orders", err)
	}
	defer rows.Close()

	var out []orders.Order
	byID := map[string]int{}
	for rows.Next() {
		var o orders.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, storage("scan order", err)
		}
		byID[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storage("list orders", err)
	}

	items, err := scanItems(s.Pool.Query(ctx,
		`SELECT id, order_id, book_id, qty, price_cents FROM order_items`))
	if err != nil {
		return nil, storage("list order items", err)
	}
	for _, it := range items {
		if i, ok := byID[it.OrderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, nil
}

func (s *Store) Payment(ctx context.Context, paymentID string) (orders.Payment, error) {
	return getPayment(ctx, s.Pool, paymentID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getPayment(ctx context.Context, q querier, paymentID string) (orders.Payment, error) {
	var p orders.Payment
	var ref *string
	err := q.QueryRow(ctx,
		`SELECT id, order_id, method, amount_cents, status, transaction_ref, created_at
		 FROM payments WHERE id=$1`,
		paymentID).Scan(&p.ID, &p.OrderID, &p.Method, &p.AmountCents, &p.Status, &ref, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Payment{}, orders.ErrPaymentNotFound
	}
	if err != nil {
		return orders.Payment{}, storage("get payment", err)
	}
	if ref != nil {
		p.TransactionRef = *ref
	}
	return p, nil
}

func scanItems(rows pgx.Rows, err error) ([]orders.OrderItem, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []orders.OrderItem
	for rows.Next() {
		var it orders.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type tx struct {
	db pgx.Tx
}

func (t *tx) BookForUpdate(ctx context.Context, bookID string) (orders.Book, error) {
	var b orders.Book
	err := t.db.QueryRow(ctx,
		`SELECT id, price_cents, stock FROM books WHERE id=$1 FOR UPDATE`,
		bookID).Scan(&b.ID, &b.PriceCents, &b.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Book{}, orders.ErrBookNotFound
	}
	if err != nil {
		return orders.Book{}, storage("lock book", err)
	}
	return b, nil
}

func (t *tx) AdjustStock(ctx context.Context, bookID string, delta int) error {
	ct, err := t.db.Exec(ctx,
		`UPDATE books SET stock = stock + $2, updated_at = now() WHERE id=$1`,
		bookID, delta)
	if err != nil {
		return storage("adjust stock", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrBookNotFound
	}
	return nil
}

func (t *tx) InsertOrder(ctx context.Context, o orders.Order) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO orders(id, customer_id, status, total_cents, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.CustomerID, o.Status, o.TotalCents, o.CreatedAt)
	if err != nil {
		return storage("insert order", err)
	}
	return nil
}

func (t *tx) GetOrder(ctx context.Context, orderID string) (orders.Order, error) {
	var o orders.Order
	err := t.db.QueryRow(ctx,
		`SELECT id, customer_id, status, total_cents, created_at FROM orders WHERE id=$1`,
		orderID).Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	if err != nil {
		return orders.Order{}, storage("get order", err)
	}
	return o, nil
}

func (t *tx) AdjustOrderTotal(ctx context.Context, orderID string, deltaCents int64) error {
	ct, err := t.db.Exec(ctx,
		`UPDATE orders SET total_cents = total_cents + $2 WHERE id=$1`,
		orderID, deltaCents)
	if err != nil {
		return storage("adjust order total", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrOrderNotFound
	}
	return nil
}

func (t *tx) UpdateOrder(ctx context.Context, orderID string, u orders.OrderUpdate) error {
	set := make([]string, 0, 2)
	args := []any{orderID}
	if u.CustomerID != nil {
		args = append(args, *u.CustomerID)
		set = append(set, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if u.Status != nil {
		args = append(args, *u.Status)
		set = append(set, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(set) == 0 {
		return nil
	}
	ct, err := t.db.Exec(ctx,
		"UPDATE orders SET "+strings.Join(set, ", ")+" WHERE id=$1", args...)
	if err != nil {
		return storage("update order", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrOrderNotFound
	}
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, orderID string) error {
	// order_items go with the order via ON DELETE CASCADE
	ct, err := t.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return storage("delete order", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrOrderNotFound
	}
	return nil
}

func (t *tx) InsertItem(ctx context.Context, it orders.OrderItem) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO order_items(id, order_id, book_id, qty, price_cents)
		 VALUES ($1,$2,$3,$4,$5)`,
		it.ID, it.OrderID, it.BookID, it.Qty, it.PriceCents)
	if err != nil {
		return storage("insert item", err)
	}
	return nil
}

func (t *tx) GetItem(ctx context.Context, itemID string) (orders.OrderItem, error) {
	var it orders.OrderItem
	err := t.db.QueryRow(ctx,
		`SELECT id, order_id, book_id, qty, price_cents FROM order_items WHERE id=$1`,
		itemID).Scan(&it.ID, &it.OrderID, &it.BookID, &it.Qty, &it.PriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.OrderItem{}, orders.ErrItemNotFound
	}
	if err != nil {
		return orders.OrderItem{}, storage("get item", err)
	}
	return it, nil
}

func (t *tx) UpdateItemQty(ctx context.Context, itemID string, qty int) error {
	ct, err := t.db.Exec(ctx,
		`UPDATE order_items SET qty=$2 WHERE id=$1`, itemID, qty)
	if err != nil {
		return storage("update item qty", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrItemNotFound
	}
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, itemID string) error {
	ct, err := t.db.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, itemID)
	if err != nil {
		return storage("delete item", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrItemNotFound
	}
	return nil
}

func (t *tx) ItemsByOrder(ctx context.Context, orderID string) ([]orders.OrderItem, error) {
	items, err := scanItems(t.db.Query(ctx,
		`SELECT id, order_id, book_id, qty, price_cents FROM order_items WHERE order_id=$1`,
		orderID))
	if err != nil {
		return nil, storage("items by order", err)
	}
	return items, nil
}

func (t *tx) InsertPayment(ctx context.Context, p orders.Payment) error {
	var ref *string
	if p.TransactionRef != "" {
		ref = &p.TransactionRef
	}
	_, err := t.db.Exec(ctx,
		`INSERT INTO payments(id, order_id, method, amount_cents, status, transaction_ref, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.OrderID, p.Method, p.AmountCents, p.Status, ref, p.CreatedAt)
	if err != nil {
		return storage("insert payment", err)
	}
	return nil
}

func (t *tx) GetPayment(ctx context.Context, paymentID string) (orders.Payment, error) {
	return getPayment(ctx, t.db, paymentID)
}

func (t *tx) UpdatePaymentStatus(ctx context.Context, paymentID string, status orders.PaymentStatus) error {
	ct, err := t.db.Exec(ctx,
		`UPDATE payments SET status=$2 WHERE id=$1`, paymentID, status)
	if err != nil {
		return storage("update payment status", err)
	}
	if ct.RowsAffected() != 1 {
		return orders.ErrPaymentNotFound
	}
	return nil
}
