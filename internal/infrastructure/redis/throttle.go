// Package redis limita las alertas de stock bajo con claves SETNX con TTL.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
)

var _ inventory.AlertThrottle = (*AlertThrottle)(nil)

type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
}

// AlertThrottle deja pasar una alerta por clave cada ttl.
type AlertThrottle struct {
	rdb    setNXer
	ttl    time.Duration
	prefix string
}

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewAlertThrottle construye el throttle sobre un cliente ya abierto.
func NewAlertThrottle(rdb *goredis.Client, ttl time.Duration) *AlertThrottle {
	return newAlertThrottle(rdb, ttl)
}

func newAlertThrottle(rdb setNXer, ttl time.Duration) *AlertThrottle {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AlertThrottle{rdb: rdb, ttl: ttl, prefix: "prescrimed:alert:"}
}

// Allow true si la clave no existía (primera alerta de la ventana).
func (a *AlertThrottle) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := a.rdb.SetNX(ctx, a.prefix+key, time.Now().UTC().Format(time.RFC3339), a.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}
