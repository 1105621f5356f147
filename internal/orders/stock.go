package orders

import "context"

// reserve checks and decrements a book's stock under the row lock taken
// by BookForUpdate. The check and the decrement are indivisible with
// respect to other reservations on the same book: a second caller blocks
// on the lock and re-reads stock after this transaction ends. Returns
// the locked book so callers can capture its current price.
func reserve(ctx context.Context, tx Tx, bookID string, qty int) (Book, error) {
	b, err := tx.BookForUpdate(ctx, bookID)
	if err != nil {
		return Book{}, err
	}
	if b.Stock < qty {
		return Book{}, &InsufficientStockError{BookID: bookID, Requested: qty, Available: b.Stock}
	}
	if err := tx.AdjustStock(ctx, bookID, -qty); err != nil {
		return Book{}, err
	}
	return b, nil
}

// release returns previously reserved stock. Unconditional: the caller
// only releases quantities it reserved earlier in a committed item.
func release(ctx context.Context, tx Tx, bookID string, qty int) error {
	return tx.AdjustStock(ctx, bookID, qty)
}
