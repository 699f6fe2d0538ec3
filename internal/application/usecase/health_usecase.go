package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
)

// Pinger dependencia comprobable (base de datos, Redis, NATS).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

// Ping implementa Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthCheck una dependencia registrada. Pinger nil = servicio deshabilitado por config.
type HealthCheck struct {
	Name     string
	Pinger   Pinger
	Required bool
}

// HealthUseCase agrega el estado de las dependencias.
type HealthUseCase struct {
	service string
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthUseCase construye el caso de uso.
func NewHealthUseCase(service string, timeout time.Duration, checks ...HealthCheck) *HealthUseCase {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthUseCase{service: service, checks: checks, timeout: timeout}
}

// Check consulta todas las dependencias en paralelo. Es unhealthy si una requerida o una
// habilitada está desconectada.
func (uc *HealthUseCase) Check(ctx context.Context) dto.HealthResponse {
	out := dto.HealthResponse{
		Status:    "healthy",
		Service:   uc.service,
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]dto.ServiceHealth, len(uc.checks)),
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range uc.checks {
		if c.Pinger == nil {
			out.Services[c.Name] = dto.ServiceHealth{Status: dto.ServiceDisabled}
			if c.Required {
				out.Status = "unhealthy"
			}
			continue
		}
		wg.Add(1)
		go func(c HealthCheck) {
			defer wg.Done()
			h := uc.ping(ctx, c.Pinger)
			mu.Lock()
			out.Services[c.Name] = h
			if h.Status != dto.ServiceConnected {
				out.Status = "unhealthy"
			}
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return out
}

// Live solo las dependencias requeridas (HEAD /health).
func (uc *HealthUseCase) Live(ctx context.Context) bool {
	for _, c := range uc.checks {
		if !c.Required {
			continue
		}
		if c.Pinger == nil || uc.ping(ctx, c.Pinger).Status != dto.ServiceConnected {
			return false
		}
	}
	return true
}

func (uc *HealthUseCase) ping(ctx context.Context, p Pinger) dto.ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()
	err := p.Ping(ctx)
	h := dto.ServiceHealth{LatencyMs: time.Since(start).Milliseconds(), Status: dto.ServiceConnected}
	if err != nil {
		h.Status = dto.ServiceDisconnected
		h.Error = err.Error()
	}
	return h
}
