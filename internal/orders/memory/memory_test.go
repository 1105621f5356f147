package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop/internal/orders"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutBook(orders.Book{ID: "b1", PriceCents: 500, Stock: 10})

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx orders.Tx) error {
		require.NoError(t, tx.AdjustStock(ctx, "b1", -4))
		require.NoError(t, tx.InsertOrder(ctx, orders.Order{ID: "o1", CustomerID: "c1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, ok := s.Book("b1")
	require.True(t, ok)
	assert.Equal(t, 10, b.Stock, "stock change must not survive a failed tx")
	_, err = s.Order(ctx, "o1")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutBook(orders.Book{ID: "b1", PriceCents: 500, Stock: 10})

	err := s.WithinTx(ctx, func(tx orders.Tx) error {
		if err := tx.InsertOrder(ctx, orders.Order{ID: "o1", CustomerID: "c1", Status: orders.StatusPending}); err != nil {
			return err
		}
		if err := tx.InsertItem(ctx, orders.OrderItem{ID: "i1", OrderID: "o1", BookID: "b1", Qty: 2, PriceCents: 500}); err != nil {
			return err
		}
		return tx.AdjustOrderTotal(ctx, "o1", 1000)
	})
	require.NoError(t, err)

	o, err := s.Order(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), o.TotalCents)
	assert.Len(t, o.Items, 1)
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WithinTx(ctx, func(tx orders.Tx) error {
		_ = tx.InsertOrder(ctx, orders.Order{ID: "o1"})
		_ = tx.InsertItem(ctx, orders.OrderItem{ID: "i1", OrderID: "o1", BookID: "b1", Qty: 1})
		return nil
	}))

	require.NoError(t, s.WithinTx(ctx, func(tx orders.Tx) error {
		return tx.DeleteOrder(ctx, "o1")
	}))

	err := s.WithinTx(ctx, func(tx orders.Tx) error {
		_, err := tx.GetItem(ctx, "i1")
		return err
	})
	assert.ErrorIs(t, err, orders.ErrItemNotFound)
}
