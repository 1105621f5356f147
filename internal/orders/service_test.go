package orders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookshop/internal/orders"
	"bookshop/internal/orders/memory"
)

func newService(t *testing.T) (*orders.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.PutBook(orders.Book{ID: "book-1", PriceCents: 1000, Stock: 5})
	store.PutBook(orders.Book{ID: "book-2", PriceCents: 2500, Stock: 3})
	return orders.NewService(store, zap.NewNop()), store
}

func stockOf(t *testing.T, store *memory.Store, bookID string) int {
	t.Helper()
	b, ok := store.Book(bookID)
	require.True(t, ok, "book %s missing", bookID)
	return b.Stock
}

// sumItems recomputes the invariant side of total_amount.
func sumItems(o orders.Order) int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.Subtotal()
	}
	return sum
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2},
		{BookID: "book-2", Qty: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4500), o.TotalCents)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, 3, stockOf(t, store, "book-1"))
	assert.Equal(t, 2, stockOf(t, store, "book-2"))

	got, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, got.TotalCents, sumItems(got))
}

func TestCreateOrderPinnedPrice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	pinned := int64(750)
	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2, PriceCents: &pinned},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), o.TotalCents)
	assert.Equal(t, pinned, o.Items[0].PriceCents)
}

func TestCreateOrderRejectsNonPositivePinnedPrice(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	for name, pinned := range map[string]int64{"negative": -500, "zero": 0} {
		t.Run(name, func(t *testing.T) {
			p := pinned
			_, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
				{BookID: "book-1", Qty: 1, PriceCents: &p},
			})
			var ve *orders.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 5, stockOf(t, store, "book-1"))
		})
	}
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	cases := []struct {
		name       string
		customerID string
		items      []orders.ItemInput
	}{
		{"missing customer", "", []orders.ItemInput{{BookID: "book-1", Qty: 1}}},
		{"no items", "cust-1", nil},
		{"zero qty", "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 0}}},
		{"negative qty", "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: -2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tc.customerID, tc.items)
			var ve *orders.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
	// nothing reserved by any of the rejected calls
	assert.Equal(t, 5, stockOf(t, store, "book-1"))
}

func TestCreateOrderInsufficientStockLeavesNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	// second line cannot be served; the whole order must vanish
	_, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2},
		{BookID: "book-2", Qty: 4},
	})
	var ise *orders.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "book-2", ise.BookID)
	assert.Equal(t, 3, ise.Available)

	assert.Equal(t, 5, stockOf(t, store, "book-1"))
	assert.Equal(t, 3, stockOf(t, store, "book-2"))
	os, err := svc.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, os)
}

func TestCreateOrderUnknownBook(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "nope", Qty: 1}})
	assert.ErrorIs(t, err, orders.ErrBookNotFound)
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 2}})
	require.NoError(t, err)

	it, err := svc.AddItem(ctx, o.ID, "book-2", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), it.PriceCents)
	assert.Equal(t, 2, stockOf(t, store, "book-2"))

	got, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), got.TotalCents)
	assert.Equal(t, got.TotalCents, sumItems(got))
}

func TestAddItemOrderNotFound(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	_, err := svc.AddItem(ctx, "missing", "book-1", 1)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
	assert.Equal(t, 5, stockOf(t, store, "book-1"))
}

func TestAddItemFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 2}})
	require.NoError(t, err)
	before, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, o.ID, "book-2", 99)
	var ise *orders.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 3, ise.Available)

	after, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, before.TotalCents, after.TotalCents)
	assert.Len(t, after.Items, len(before.Items))
	assert.Equal(t, 3, stockOf(t, store, "book-1"))
	assert.Equal(t, 3, stockOf(t, store, "book-2"))
}

func TestAddThenDeleteItemRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 2}})
	require.NoError(t, err)
	stockBefore := stockOf(t, store, "book-2")
	totalBefore := o.TotalCents

	it, err := svc.AddItem(ctx, o.ID, "book-2", 2)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteItem(ctx, it.ID))

	assert.Equal(t, stockBefore, stockOf(t, store, "book-2"))
	got, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, totalBefore, got.TotalCents)
	assert.Len(t, got.Items, 1)
}

func TestUpdateItemQty(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 2}})
	require.NoError(t, err)
	itemID := o.Items[0].ID

	t.Run("increase reserves the delta", func(t *testing.T) {
		it, err := svc.UpdateItemQty(ctx, itemID, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, it.Qty)
		assert.Equal(t, 1, stockOf(t, store, "book-1"))

		got, err := svc.Order(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4000), got.TotalCents)
	})

	t.Run("decrease releases the delta", func(t *testing.T) {
		it, err := svc.UpdateItemQty(ctx, itemID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, it.Qty)
		assert.Equal(t, 4, stockOf(t, store, "book-1"))

		got, err := svc.Order(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), got.TotalCents)
	})

	t.Run("zero is rejected", func(t *testing.T) {
		_, err := svc.UpdateItemQty(ctx, itemID, 0)
		var ve *orders.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := svc.UpdateItemQty(ctx, "missing", 2)
		assert.ErrorIs(t, err, orders.ErrItemNotFound)
	})
}

func TestUpdateItemQtyInsufficientStockUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	// qty 2 leaves stock at 3; raising to 6 needs 4 more
	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 2}})
	require.NoError(t, err)
	itemID := o.Items[0].ID

	_, err = svc.UpdateItemQty(ctx, itemID, 6)
	var ise *orders.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 3, ise.Available)

	got, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Qty)
	assert.Equal(t, int64(2000), got.TotalCents)
	assert.Equal(t, 3, stockOf(t, store, "book-1"))
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2},
		{BookID: "book-2", Qty: 1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, o.ID))

	assert.Equal(t, 5, stockOf(t, store, "book-1"))
	assert.Equal(t, 3, stockOf(t, store, "book-2"))
	_, err = svc.Order(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)

	os, err := svc.Orders(ctx)
	require.NoError(t, err)
	assert.Empty(t, os)
}

func TestDeleteOrderNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.DeleteOrder(ctx, "missing"), orders.ErrOrderNotFound)
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2},
	})
	require.NoError(t, err)

	t.Run("status", func(t *testing.T) {
		st := orders.StatusConfirmed
		got, err := svc.UpdateOrder(ctx, o.ID, orders.OrderUpdate{Status: &st})
		require.NoError(t, err)
		assert.Equal(t, orders.StatusConfirmed, got.Status)
		assert.Equal(t, o.TotalCents, got.TotalCents, "total must not move on a field update")
	})

	t.Run("customer", func(t *testing.T) {
		c := "cust-2"
		got, err := svc.UpdateOrder(ctx, o.ID, orders.OrderUpdate{CustomerID: &c})
		require.NoError(t, err)
		assert.Equal(t, "cust-2", got.CustomerID)
		assert.Equal(t, orders.StatusConfirmed, got.Status, "unset fields stay put")
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		st := orders.Status("Teleported")
		_, err := svc.UpdateOrder(ctx, o.ID, orders.OrderUpdate{Status: &st})
		var ve *orders.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		_, err := svc.UpdateOrder(ctx, o.ID, orders.OrderUpdate{})
		var ve *orders.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("missing order", func(t *testing.T) {
		st := orders.StatusShipped
		_, err := svc.UpdateOrder(ctx, "nope", orders.OrderUpdate{Status: &st})
		assert.ErrorIs(t, err, orders.ErrOrderNotFound)
	})
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2},
		{BookID: "book-2", Qty: 1},
	})
	require.NoError(t, err)

	p, err := svc.RecordPayment(ctx, orders.PaymentInput{
		OrderID:        o.ID,
		AmountCents:    4500,
		Method:         orders.MethodUPI,
		Status:         orders.PaymentSuccess,
		TransactionRef: "txn-1",
	})
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentSuccess, p.Status)
	assert.Equal(t, int64(4500), p.AmountCents)
}

func TestRecordPaymentExceedsTotal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{
		{BookID: "book-1", Qty: 2},
		{BookID: "book-2", Qty: 1},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, orders.PaymentInput{
		OrderID:     o.ID,
		AmountCents: 5000,
		Method:      orders.MethodCard,
		Status:      orders.PaymentPending,
	})
	var ae *orders.AmountExceedsTotalError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, int64(4500), ae.TotalCents)
}

func TestRecordPaymentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cases := []struct {
		name string
		in   orders.PaymentInput
	}{
		{"zero amount", orders.PaymentInput{OrderID: "x", AmountCents: 0, Method: orders.MethodUPI, Status: orders.PaymentPending}},
		{"bad method", orders.PaymentInput{OrderID: "x", AmountCents: 100, Method: "Barter", Status: orders.PaymentPending}},
		{"bad status", orders.PaymentInput{OrderID: "x", AmountCents: 100, Method: orders.MethodUPI, Status: "Maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordPayment(ctx, tc.in)
			var ve *orders.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	_, err := svc.RecordPayment(ctx, orders.PaymentInput{
		OrderID: "missing", AmountCents: 100, Method: orders.MethodUPI, Status: orders.PaymentPending,
	})
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-1", Qty: 1}})
	require.NoError(t, err)
	p, err := svc.RecordPayment(ctx, orders.PaymentInput{
		OrderID: o.ID, AmountCents: 1000, Method: orders.MethodCash, Status: orders.PaymentPending,
	})
	require.NoError(t, err)

	got, err := svc.UpdatePaymentStatus(ctx, p.ID, orders.PaymentSuccess)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentSuccess, got.Status)

	_, err = svc.UpdatePaymentStatus(ctx, p.ID, "Refunded")
	var ve *orders.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.UpdatePaymentStatus(ctx, "missing", orders.PaymentFailed)
	assert.ErrorIs(t, err, orders.ErrPaymentNotFound)
}

func TestConcurrentAddItemSameBook(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	o, err := svc.CreateOrder(ctx, "cust-1", []orders.ItemInput{{BookID: "book-2", Qty: 1}})
	require.NoError(t, err)

	// book-1 has 5 in stock; two concurrent requests for 3 each can
	// only be served once.
	results := make(chan error, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := svc.AddItem(ctx, o.ID, "book-1", 3)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var ok, insufficient int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var ise *orders.InsufficientStockError
		if errors.As(err, &ise) {
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 2, stockOf(t, store, "book-1"))

	got, err := svc.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, got.TotalCents, sumItems(got))
}
