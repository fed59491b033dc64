package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/redisx"
)

// Cache is the Redis-shaped edge of the controller: a status cache for the
// tracking endpoints and a seen-set for webhook event ids.
type Cache interface {
	SetStatus(ctx context.Context, orderID string, status orders.Status, pay orders.PaymentStatus) error
	GetStatus(ctx context.Context, orderID string) (*CachedStatus, error)
	SeenEvent(ctx context.Context, eventID string) (bool, error)
	MarkEvent(ctx context.Context, eventID string) error
}

type CachedStatus struct {
	OrderStatus   orders.Status        `json:"orderStatus"`
	PaymentStatus orders.PaymentStatus `json:"paymentStatus"`
}

type RedisCache struct {
	RDB     *redis.Client
	Service string
}

func (c *RedisCache) SetStatus(ctx context.Context, orderID string, status orders.Status, pay orders.PaymentStatus) error {
	b, err := json.Marshal(CachedStatus{OrderStatus: status, PaymentStatus: pay})
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	return c.RDB.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}

func (c *RedisCache) GetStatus(ctx context.Context, orderID string) (*CachedStatus, error) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	b, err := c.RDB.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s CachedStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RedisCache) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, c.RDB, fmt.Sprintf(redisx.KeyDedup, c.Service, eventID))
}

func (c *RedisCache) MarkEvent(ctx context.Context, eventID string) error {
	key := fmt.Sprintf(redisx.KeyDedup, c.Service, eventID)
	return c.RDB.Set(ctx, key, "1", redisx.TTLDedup).Err()
}
