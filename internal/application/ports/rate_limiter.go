package ports

import (
	"context"
	"time"
)

// RateLimitResult decisión para una petición.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter segundos hasta que la ventana se reinicia (mínimo 1).
func (r RateLimitResult) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}

// RateLimiter cuenta peticiones por clave en una ventana fija.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}
