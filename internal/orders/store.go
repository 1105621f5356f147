package orders

import "context"

// Store is the unit-of-work boundary the service runs each operation
// inside. Implementations guarantee that everything done through the Tx
// passed to fn commits together or not at all.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Read paths outside a mutating unit of work.
	Order(ctx context.Context, orderID string) (Order, error)
	Orders(ctx context.Context) ([]Order, error)
	Payment(ctx context.Context, paymentID string) (Payment, error)
}

// Tx is the set of row operations one order-service operation may touch.
// BookForUpdate must hold an exclusive lock on the book row until the
// enclosing transaction ends; it is the serialization point for
// concurrent stock changes on one book.
type Tx interface {
	BookForUpdate(ctx context.Context, bookID string) (Book, error)
	// AdjustStock applies a relative stock change. Callers only pass
	// negative deltas after BookForUpdate confirmed availability.
	AdjustStock(ctx context.Context, bookID string, delta int) error

	InsertOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	// AdjustOrderTotal applies a relative change to total_amount. It is
	// an increment at the store level, never read-modify-write.
	AdjustOrderTotal(ctx context.Context, orderID string, deltaCents int64) error
	// UpdateOrder applies the allow-listed field changes; nil fields
	// are left untouched.
	UpdateOrder(ctx context.Context, orderID string, u OrderUpdate) error
	DeleteOrder(ctx context.Context, orderID string) error

	InsertItem(ctx context.Context, it OrderItem) error
	GetItem(ctx context.Context, itemID string) (OrderItem, error)
	UpdateItemQty(ctx context.Context, itemID string, qty int) error
	DeleteItem(ctx context.Context, itemID string) error
	ItemsByOrder(ctx context.Context, orderID string) ([]OrderItem, error)

	InsertPayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, paymentID string) (Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID string, status PaymentStatus) error
}
