// Package reports is the read-only reporting side: aggregate queries
// over the same orders/books rows the order core writes. Nothing here
// mutates state.
package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Reader struct {
	DB *pgxpool.Pool
}

type DailySales struct {
	Day        time.Time `json:"day"`
	NumOrders  int       `json:"num_orders"`
	SalesCents int64     `json:"sales_cents"`
}

// DailySales sums confirmed-or-later orders per day. Pending and
// cancelled orders are not sales yet.
func (r *Reader) DailySales(ctx context.Context) ([]DailySales, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(id) AS num_orders,
		       COALESCE(SUM(total_cents), 0) AS sales_cents
		FROM orders
		WHERE status IN ('Confirmed', 'Shipped', 'Delivered')
		GROUP BY 1
		ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.NumOrders, &d.SalesCents); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type TopBook struct {
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	TotalSold int    `json:"total_sold"`
}

func (r *Reader) TopBooks(ctx context.Context, limit int) ([]TopBook, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.DB.Query(ctx, `
		SELECT b.id, b.title, b.author, SUM(oi.qty) AS total_sold
		FROM order_items oi
		JOIN books b ON oi.book_id = b.id
		JOIN orders o ON oi.order_id = o.id
		WHERE o.status IN ('Confirmed', 'Shipped', 'Delivered')
		GROUP BY b.id, b.title, b.author
		ORDER BY total_sold DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopBook
	for rows.Next() {
		var t TopBook
		if err := rows.Scan(&t.BookID, &t.Title, &t.Author, &t.TotalSold); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type StockRow struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Stock  int    `json:"stock"`
}

func (r *Reader) CurrentStock(ctx context.Context) ([]StockRow, error) {
	return r.stockRows(ctx,
		`SELECT id, title, author, stock FROM books ORDER BY title`)
}

func (r *Reader) LowStock(ctx context.Context, threshold int) ([]StockRow, error) {
	return r.stockRows(ctx,
		`SELECT id, title, author, stock FROM books WHERE stock < $1 ORDER BY stock, title`,
		threshold)
}

func (r *Reader) stockRows(ctx context.Context, sql string, args ...any) ([]StockRow, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StockRow
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(&s.BookID, &s.Title, &s.Author, &s.Stock); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
