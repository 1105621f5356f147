package orders

import "time"

// Book is the slice of the catalog row the order core works with:
// the current price and the stock counter it guards. The full catalog
// entity lives in internal/catalog; both read the same table.
type Book struct {
	ID         string
	PriceCents int64
	Stock      int
}

type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	Status     Status      `json:"status"`
	TotalCents int64       `json:"total_cents"`
	CreatedAt  time.Time   `json:"created_at"`
	Items      []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	BookID     string `json:"book_id"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"` // unit price captured when the item was added
}

// Subtotal is the item's contribution to the order total.
func (it OrderItem) Subtotal() int64 {
	return int64(it.Qty) * it.PriceCents
}

type Payment struct {
	ID             string        `json:"id"`
	OrderID        string        `json:"order_id"`
	Method         PaymentMethod `json:"method"`
	AmountCents    int64         `json:"amount_cents"`
	Status         PaymentStatus `json:"status"`
	TransactionRef string        `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
