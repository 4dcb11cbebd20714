package cache

import (
	"context"
	"time"
)

// Cache guarda respuestas derivadas: métricas del dashboard por rango y
// contenido generado por hash de parámetros.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// NoOp se usa cuando Redis no está configurado.
type NoOp struct{}

func (NoOp) Get(context.Context, string) (string, bool)          { return "", false }
func (NoOp) Set(context.Context, string, string, time.Duration) {}
