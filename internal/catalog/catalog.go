// Package catalog owns the books table: admin CRUD and search. Stock on
// these rows is mutated by the order core only; writes here never touch
// it except through Restock.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("book not found")

type Book struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	ISBN       string    `json:"isbn,omitempty"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookUpdate is the allow-list of mutable fields; nil means keep.
// Unknown fields never reach SQL because there is nothing else to set.
type BookUpdate struct {
	Title      *string
	Author     *string
	ISBN       *string
	PriceCents *int64
}

type Repo struct {
	DB *pgxpool.Pool
}

const bookCols = `id, title, author, isbn, price_cents, stock, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, b Book) (Book, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx,
		`INSERT INTO books(id, title, author, isbn, price_cents, stock, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.ID, b.Title, b.Author, b.ISBN, b.PriceCents, b.Stock, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Book, error) {
	return scanBook(r.DB.QueryRow(ctx,
		`SELECT `+bookCols+` FROM books WHERE id=$1`, id))
}

func (r *Repo) List(ctx context.Context) ([]Book, error) {
	return r.queryBooks(ctx, `SELECT `+bookCols+` FROM books ORDER BY title`)
}

// searchable maps the API's search field names onto columns. Anything
// else is rejected, never interpolated.
var searchable = map[string]string{
	"title":  "title",
	"author": "author",
	"isbn":   "isbn",
}

func (r *Repo) Search(ctx context.Context, by, q string) ([]Book, error) {
	col, ok := searchable[by]
	if !ok {
		return nil, fmt.Errorf("invalid search field %q", by)
	}
	return r.queryBooks(ctx,
		`SELECT `+bookCols+` FROM books WHERE `+col+` ILIKE $1 ORDER BY title`,
		"%"+q+"%")
}

func (r *Repo) Update(ctx context.Context, id string, u BookUpdate) (Book, error) {
	set := make([]string, 0, 4)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Author != nil {
		add("author", *u.Author)
	}
	if u.ISBN != nil {
		add("isbn", *u.ISBN)
	}
	if u.PriceCents != nil {
		add("price_cents", *u.PriceCents)
	}
	if len(set) == 0 {
		return Book{}, fmt.Errorf("no fields to update")
	}
	add("updated_at", time.Now().UTC())

	sql := "UPDATE books SET "
	for i, s := range set {
		if i > 0 {
			sql += ", "
		}
		sql += s
	}
	sql += " WHERE id=$1"
	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return Book{}, err
	}
	if ct.RowsAffected() == 0 {
		return Book{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Restock raises stock outside any order, e.g. a delivery arriving.
func (r *Repo) Restock(ctx context.Context, id string, qty int) (Book, error) {
	if qty <= 0 {
		return Book{}, fmt.Errorf("restock quantity must be positive")
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE books SET stock = stock + $2, updated_at = now() WHERE id=$1`, id, qty)
	if err != nil {
		return Book{}, err
	}
	if ct.RowsAffected() == 0 {
		return Book{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StockLevel reports a book's current stock; the stock watcher uses it
// after order events.
func (r *Repo) StockLevel(ctx context.Context, id string) (int, error) {
	var stock int
	err := r.DB.QueryRow(ctx, `SELECT stock FROM books WHERE id=$1`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return stock, err
}

func (r *Repo) queryBooks(ctx context.Context, sql string, args ...any) ([]Book, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PriceCents, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}
