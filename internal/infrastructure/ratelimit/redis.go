package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/pkg/config"
)

var _ ports.RateLimiter = (*Redis)(nil)

// KEYS[1]=clave; ARGV[1]=ventana en ms. Devuelve {cuenta, ms hasta el reinicio}.
var luaFixedWindow = redis.NewScript(`
  local n = redis.call('INCR', KEYS[1])
  if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
  end
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
  end
  return {n, ttl}
`)

// Redis limitador compartido: INCR + PEXPIRE atómicos en un script.
type Redis struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

// NewRedisClient cliente go-redis desde la configuración.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewRedis max peticiones por clave y ventana; las claves quedan bajo prefix.
func NewRedis(rdb redis.Scripter, prefix string, max int, win time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, limit: max, window: win}
}

// Allow cuenta la petición en Redis.
func (r *Redis) Allow(ctx context.Context, key string) (ports.RateLimitResult, error) {
	vals, err := luaFixedWindow.Run(ctx, r.rdb, []string{r.prefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.RateLimitResult{}, fmt.Errorf("rate limit redis: %w", err)
	}
	if len(vals) != 2 {
		return ports.RateLimitResult{}, fmt.Errorf("rate limit redis: respuesta inesperada %v", vals)
	}
	resetAt := time.Now().Add(time.Duration(vals[1]) * time.Millisecond)
	return result(r.limit, int(vals[0]), resetAt), nil
}
