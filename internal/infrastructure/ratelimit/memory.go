// Package ratelimit contadores de ventana fija para el formulario público: en memoria
// (una sola réplica, desarrollo) o en Redis (compartido entre réplicas).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
)

var _ ports.RateLimiter = (*Memory)(nil)

type window struct {
	count   int
	resetAt time.Time
}

// Memory limitador en proceso. Las ventanas vencidas se purgan al pasar por sweepEvery.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*window
	lastSweep time.Time
}

const sweepEvery = time.Minute

// NewMemory max peticiones por clave en cada ventana.
func NewMemory(max int, win time.Duration) *Memory {
	return &Memory{limit: max, window: win, now: time.Now, buckets: map[string]*window{}}
}

// WithClock reloj alternativo (pruebas).
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Allow cuenta la petición y decide.
func (m *Memory) Allow(_ context.Context, key string) (ports.RateLimitResult, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= sweepEvery {
		for k, w := range m.buckets {
			if !now.Before(w.resetAt) {
				delete(m.buckets, k)
			}
		}
		m.lastSweep = now
	}

	w, ok := m.buckets[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.buckets[key] = w
	}
	w.count++
	return result(m.limit, w.count, w.resetAt), nil
}

func result(limit, count int, resetAt time.Time) ports.RateLimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
