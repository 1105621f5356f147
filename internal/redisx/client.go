package redisx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Flags is the consumer-side state kept in Redis: event dedup and
// low-stock markers.
type Flags struct {
	RDB     *redis.Client
	Service string
}

// SeenEvent marks the event id and reports whether it was already
// processed. SETNX makes mark-and-check one round trip.
func (f *Flags) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, f.Service, eventID)
	set, err := f.RDB.SetNX(ctx, key, "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

func (f *Flags) SetLowStock(ctx context.Context, bookID string, available int) error {
	key := fmt.Sprintf(KeyLowStock, bookID)
	return f.RDB.Set(ctx, key, strconv.Itoa(available), TTLLowStock).Err()
}

func (f *Flags) ClearLowStock(ctx context.Context, bookID string) error {
	key := fmt.Sprintf(KeyLowStock, bookID)
	return f.RDB.Del(ctx, key).Err()
}
