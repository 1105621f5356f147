package httpx

import (
	"time"

	"bookshop/internal/catalog"
	"bookshop/internal/orders"
)

// Response bodies render money as fixed two-decimal strings; cents stay
// an internal representation.

type itemBody struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	BookID    string `json:"book_id"`
	Qty       int    `json:"qty"`
	PriceEach string `json:"price_each"`
}

func itemResp(it orders.OrderItem) itemBody {
	return itemBody{
		ID:        it.ID,
		OrderID:   it.OrderID,
		BookID:    it.BookID,
		Qty:       it.Qty,
		PriceEach: FormatCents(it.PriceCents),
	}
}

type orderBody struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customer_id"`
	Status      string     `json:"status"`
	TotalAmount string     `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	Items       []itemBody `json:"items"`
}

func orderResp(o orders.Order) orderBody {
	items := make([]itemBody, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemResp(it))
	}
	return orderBody{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: FormatCents(o.TotalCents),
		CreatedAt:   o.CreatedAt,
		Items:       items,
	}
}

type paymentBody struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	Method         string    `json:"method"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func paymentResp(p orders.Payment) paymentBody {
	return paymentBody{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Method:         string(p.Method),
		Amount:         FormatCents(p.AmountCents),
		Status:         string(p.Status),
		TransactionRef: p.TransactionRef,
		CreatedAt:      p.CreatedAt,
	}
}

type bookBody struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn,omitempty"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func bookResp(b catalog.Book) bookBody {
	return bookBody{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Price:     FormatCents(b.PriceCents),
		Stock:     b.Stock,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
