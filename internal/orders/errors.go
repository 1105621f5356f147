package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("order item not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrBookNotFound    = errors.New("book not found")
)

// ValidationError reports malformed or out-of-range input. The operation
// is not retryable until the caller fixes the request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError means a reservation asked for more than the
// book has. Available carries the stock observed under lock so the
// caller can react without re-querying.
type InsufficientStockError struct {
	BookID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: requested %d, available %d",
		e.BookID, e.Requested, e.Available)
}

// AmountExceedsTotalError means a payment was larger than the order's
// current total.
type AmountExceedsTotalError struct {
	OrderID     string
	AmountCents int64
	TotalCents  int64
}

func (e *AmountExceedsTotalError) Error() string {
	return fmt.Sprintf("payment of %d exceeds order %s total %d",
		e.AmountCents, e.OrderID, e.TotalCents)
}

// StorageError wraps failures coming from the data store itself
// (connection loss, deadlock). The core never retries; callers that do
// must re-validate stock and totals first.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
