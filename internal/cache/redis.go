package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	cliente *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{
		cliente: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.cliente.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	// Best effort: si Redis falla, la siguiente petición vuelve al proveedor.
	_ = r.cliente.Set(ctx, key, value, ttl).Err()
}
