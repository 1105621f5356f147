// Package stockwatch consumes order events and maintains low-stock
// flags. It never mutates stock; it re-reads levels after the order
// core has committed and records which books dropped below the
// threshold.
package stockwatch

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "bookshop/internal/kafka"
	"bookshop/internal/orders"
)

// StockReader reports a book's committed stock level.
type StockReader interface {
	StockLevel(ctx context.Context, bookID string) (int, error)
}

// FlagStore keeps dedup state and the low-stock markers.
type FlagStore interface {
	SeenEvent(ctx context.Context, eventID string) (bool, error)
	SetLowStock(ctx context.Context, bookID string, available int) error
	ClearLowStock(ctx context.Context, bookID string) error
}

type Service struct {
	Stocks    StockReader
	Flags     FlagStore
	Log       *zap.Logger
	Threshold int
}

// HandleOrderEvent is the consumer handler for order.created and
// order.deleted. Both payload shapes carry the touched book quantities.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	var items []orders.ItemQty
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		items = p.Items
	case orders.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[orders.OrderDeletedPayload](env.Payload)
		if err != nil {
			return err
		}
		items = p.Items
	default:
		return nil // not a stock-touching event
	}

	seen, err := s.Flags.SeenEvent(ctx, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	for _, bookID := range distinctBooks(items) {
		if err := s.checkBook(ctx, bookID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkBook(ctx context.Context, bookID string) error {
	stock, err := s.Stocks.StockLevel(ctx, bookID)
	if err != nil {
		return err
	}
	if stock < s.Threshold {
		s.Log.Info("low stock",
			zap.String("book_id", bookID),
			zap.Int("stock", stock),
			zap.Int("threshold", s.Threshold))
		return s.Flags.SetLowStock(ctx, bookID, stock)
	}
	return s.Flags.ClearLowStock(ctx, bookID)
}

func distinctBooks(items []orders.ItemQty) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.BookID] {
			seen[it.BookID] = true
			out = append(out, it.BookID)
		}
	}
	return out
}
