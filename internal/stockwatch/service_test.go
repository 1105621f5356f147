package stockwatch_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshop/internal/orders"
	"bookshop/internal/stockwatch"
)

type fakeStocks map[string]int

func (f fakeStocks) StockLevel(_ context.Context, bookID string) (int, error) {
	return f[bookID], nil
}

type fakeFlags struct {
	seen    map[string]bool
	low     map[string]int
	cleared []string
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{seen: map[string]bool{}, low: map[string]int{}}
}

func (f *fakeFlags) SeenEvent(_ context.Context, eventID string) (bool, error) {
	if f.seen[eventID] {
		return true, nil
	}
	f.seen[eventID] = true
	return false, nil
}

func (f *fakeFlags) SetLowStock(_ context.Context, bookID string, available int) error {
	f.low[bookID] = available
	return nil
}

func (f *fakeFlags) ClearLowStock(_ context.Context, bookID string) error {
	delete(f.low, bookID)
	f.cleared = append(f.cleared, bookID)
	return nil
}

func envelope(t *testing.T, eventType, eventID string, payload any) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "bookshop-test",
		Payload:      raw,
	})
	require.NoError(t, err)
	return kafkago.Message{Value: body}
}

func TestOrderCreatedFlagsLowStock(t *testing.T) {
	flags := newFakeFlags()
	svc := &stockwatch.Service{
		Stocks:    fakeStocks{"book-1": 4, "book-2": 50},
		Flags:     flags,
		Log:       zap.NewNop(),
		Threshold: 10,
	}

	msg := envelope(t, orders.EventOrderCreated, "evt-1", orders.OrderCreatedPayload{
		OrderID: "ord-1",
		Items: []orders.ItemQty{
			{BookID: "book-1", Qty: 2},
			{BookID: "book-2", Qty: 1},
			{BookID: "book-1", Qty: 1}, // duplicate book, checked once
		},
	})
	require.NoError(t, svc.HandleOrderEvent(context.Background(), msg))

	assert.Equal(t, map[string]int{"book-1": 4}, flags.low)
	assert.Equal(t, []string{"book-2"}, flags.cleared)
}

func TestOrderDeletedClearsRecoveredStock(t *testing.T) {
	flags := newFakeFlags()
	flags.low["book-1"] = 4
	svc := &stockwatch.Service{
		Stocks:    fakeStocks{"book-1": 12},
		Flags:     flags,
		Log:       zap.NewNop(),
		Threshold: 10,
	}

	msg := envelope(t, orders.EventOrderDeleted, "evt-2", orders.OrderDeletedPayload{
		OrderID: "ord-1",
		Items:   []orders.ItemQty{{BookID: "book-1", Qty: 8}},
	})
	require.NoError(t, svc.HandleOrderEvent(context.Background(), msg))

	assert.Empty(t, flags.low)
}

func TestDuplicateEventSkipped(t *testing.T) {
	flags := newFakeFlags()
	svc := &stockwatch.Service{
		Stocks:    fakeStocks{"book-1": 1},
		Flags:     flags,
		Log:       zap.NewNop(),
		Threshold: 10,
	}

	msg := envelope(t, orders.EventOrderCreated, "evt-3", orders.OrderCreatedPayload{
		OrderID: "ord-1",
		Items:   []orders.ItemQty{{BookID: "book-1", Qty: 1}},
	})
	require.NoError(t, svc.HandleOrderEvent(context.Background(), msg))
	require.Len(t, flags.low, 1)

	delete(flags.low, "book-1")
	require.NoError(t, svc.HandleOrderEvent(context.Background(), msg))
	assert.Empty(t, flags.low, "redelivered event must not re-run the check")
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	svc := &stockwatch.Service{
		Stocks:    fakeStocks{},
		Flags:     newFakeFlags(),
		Log:       zap.NewNop(),
		Threshold: 10,
	}
	msg := envelope(t, "SomethingElse", "evt-4", map[string]any{})
	assert.NoError(t, svc.HandleOrderEvent(context.Background(), msg))
}
