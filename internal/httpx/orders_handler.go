package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "bookshop/internal/kafka"
	"bookshop/internal/orders"
	"bookshop/internal/redisx"
)

// Publisher is what the handler needs from a kafka producer; nil means
// events are off (tests, local runs without brokers).
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
	Name    string // producer name stamped into event envelopes

	Created  Publisher // order.created
	Deleted  Publisher // order.deleted
	Payments Publisher // order.payment.recorded
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Patch("/orders/{id}", h.updateOrder)
	r.Delete("/orders/{id}", h.deleteOrder)

	r.Post("/orders/{id}/items", h.addItem)
	r.Patch("/items/{id}", h.updateItem)
	r.Delete("/items/{id}", h.deleteItem)

	r.Post("/orders/{id}/payments", h.recordPayment)
	r.Get("/payments/{id}", h.getPayment)
	r.Patch("/payments/{id}/status", h.updatePaymentStatus)
}

type createItemReq struct {
	BookID string      `json:"book_id" validate:"required"`
	Qty    int         `json:"qty" validate:"required,min=1"`
	Price  json.Number `json:"price,omitempty"` // pins the unit price; empty = current catalog price
}

type createOrderReq struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	Items      []createItemReq `json:"items" validate:"required,min=1,dive"`
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	items := make([]orders.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		in := orders.ItemInput{BookID: it.BookID, Qty: it.Qty}
		if it.Price != "" {
			cents, err := ParseAmount(it.Price)
			if err != nil {
				writeError(w, &orders.ValidationError{Msg: err.Error()})
				return
			}
			in.PriceCents = &cents
		}
		items = append(items, in)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CreateOrder(ctx, req.CustomerID, items)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	h.publishOrderCreated(o)
	writeJSON(w, http.StatusCreated, orderResp(o))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	os, err := h.Service.Orders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]orderBody, 0, len(os))
	for _, o := range os {
		out = append(out, orderResp(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.Order(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResp(o))
}

// getOrderStatus serves the Redis cache first and falls back to the
// store, refilling the cache on a miss.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Service.Order(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

type updateOrderReq struct {
	CustomerID *string `json:"customer_id,omitempty"`
	Status     *string `json:"status,omitempty"`
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u := orders.OrderUpdate{CustomerID: req.CustomerID}
	if req.Status != nil {
		st := orders.Status(*req.Status)
		u.Status = &st
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateOrder(ctx, chi.URLParam(r, "id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, orderResp(o))
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// snapshot the aggregate for the deletion event before it is gone
	o, err := h.Service.Order(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.DeleteOrder(ctx, orderID); err != nil {
		writeError(w, err)
		return
	}

	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	}
	h.publishOrderDeleted(o)
	w.WriteHeader(http.StatusNoContent)
}

type addItemReq struct {
	BookID string `json:"book_id" validate:"required"`
	Qty    int    `json:"qty" validate:"required,min=1"`
}

func (h *OrdersHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Service.AddItem(ctx, chi.URLParam(r, "id"), req.BookID, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResp(it))
}

type updateItemReq struct {
	Qty int `json:"qty" validate:"required,min=1"`
}

func (h *OrdersHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Service.UpdateItemQty(ctx, chi.URLParam(r, "id"), req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResp(it))
}

func (h *OrdersHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.DeleteItem(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordPaymentReq struct {
	Amount         json.Number `json:"amount" validate:"required"`
	Method         string      `json:"method" validate:"required"`
	Status         string      `json:"status,omitempty"`
	TransactionRef string      `json:"transaction_ref,omitempty"`
}

func (h *OrdersHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	cents, err := ParseAmount(req.Amount)
	if err != nil {
		writeError(w, &orders.ValidationError{Msg: err.Error()})
		return
	}
	status := orders.PaymentStatus(req.Status)
	if req.Status == "" {
		status = orders.PaymentPending
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.RecordPayment(ctx, orders.PaymentInput{
		OrderID:        chi.URLParam(r, "id"),
		AmountCents:    cents,
		Method:         orders.PaymentMethod(req.Method),
		Status:         status,
		TransactionRef: req.TransactionRef,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.publishPaymentRecorded(p)
	writeJSON(w, http.StatusCreated, paymentResp(p))
}

func (h *OrdersHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Service.Payment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResp(p))
}

type updatePaymentStatusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrdersHandler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentStatusReq
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.UpdatePaymentStatus(ctx, chi.URLParam(r, "id"), orders.PaymentStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResp(p))
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, status orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]any{"status": status})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publishOrderCreated(o orders.Order) {
	if h.Created == nil {
		return
	}
	h.publish(h.Created, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Items:      itemQtys(o.Items),
		TotalCents: o.TotalCents,
	})
}

func (h *OrdersHandler) publishOrderDeleted(o orders.Order) {
	if h.Deleted == nil {
		return
	}
	h.publish(h.Deleted, orders.EventOrderDeleted, o.ID, orders.OrderDeletedPayload{
		OrderID: o.ID,
		Items:   itemQtys(o.Items),
	})
}

func (h *OrdersHandler) publishPaymentRecorded(p orders.Payment) {
	if h.Payments == nil {
		return
	}
	h.publish(h.Payments, orders.EventPaymentRecorded, p.OrderID, orders.PaymentRecordedPayload{
		PaymentID:   p.ID,
		OrderID:     p.OrderID,
		Method:      string(p.Method),
		AmountCents: p.AmountCents,
		Status:      string(p.Status),
	})
}

func (h *OrdersHandler) publish(p Publisher, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Name,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func itemQtys(items []orders.OrderItem) []orders.ItemQty {
	out := make([]orders.ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemQty{BookID: it.BookID, Qty: it.Qty})
	}
	return out
}
