package redisx

import "time"

const (
	// Cache of order status for GET: order:status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order:status:%s"

	// Event dedup for consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Low-stock flag set by the stock watcher: stock:low:{book_id} -> available
	KeyLowStock = "stock:low:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLLowStock    = 24 * time.Hour
)
