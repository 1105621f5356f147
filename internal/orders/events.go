package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventOrderDeleted    = "OrderDeleted"
	EventPaymentRecorded = "PaymentRecorded"
)

// Envelope is the versioned wrapper every published event rides in.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	BookID string `json:"book_id"`
	Qty    int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Items      []ItemQty `json:"items"`
	TotalCents int64     `json:"total_cents"`
}

type OrderDeletedPayload struct {
	OrderID string    `json:"order_id"`
	Items   []ItemQty `json:"items"` // quantities whose stock was released
}

type PaymentRecordedPayload struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}
