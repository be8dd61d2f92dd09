package redisx

import (
	"context"
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

// Dedup tracks processed keys with a TTL so consumers can drop duplicate
// deliveries.
type Dedup struct{ C *redis.Client }

func (d Dedup) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.C.Exists(ctx, key).Result()
	return n > 0, err
}

func (d Dedup) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return d.C.Set(ctx, key, "1", ttl).Err()
}
