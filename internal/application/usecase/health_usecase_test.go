package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
)

func okPing(context.Context) error { return nil }

func TestHealthCheck_TodoConectado(t *testing.T) {
	uc := usecase.NewHealthUseCase("leads-api", time.Second,
		usecase.HealthCheck{Name: "database", Pinger: usecase.PingFunc(okPing), Required: true},
		usecase.HealthCheck{Name: "redis", Pinger: usecase.PingFunc(okPing)},
		usecase.HealthCheck{Name: "nats"},
	)
	out := uc.Check(context.Background())
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "leads-api", out.Service)
	assert.Equal(t, dto.ServiceConnected, out.Services["database"].Status)
	assert.Equal(t, dto.ServiceDisabled, out.Services["nats"].Status, "deshabilitado no degrada")
	assert.True(t, uc.Live(context.Background()))
}

func TestHealthCheck_DependenciaCaida(t *testing.T) {
	uc := usecase.NewHealthUseCase("leads-api", time.Second,
		usecase.HealthCheck{Name: "database", Pinger: usecase.PingFunc(okPing), Required: true},
		usecase.HealthCheck{Name: "redis", Pinger: usecase.PingFunc(func(context.Context) error {
			return errors.New("connection refused")
		})},
	)
	out := uc.Check(context.Background())
	assert.Equal(t, "unhealthy", out.Status)
	assert.Equal(t, dto.ServiceDisconnected, out.Services["redis"].Status)
	assert.Equal(t, "connection refused", out.Services["redis"].Error)
	assert.True(t, uc.Live(context.Background()), "redis no es requerido")
}

func TestHealthCheck_Timeout(t *testing.T) {
	slow := usecase.PingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	uc := usecase.NewHealthUseCase("leads-api", 20*time.Millisecond,
		usecase.HealthCheck{Name: "database", Pinger: slow, Required: true})

	start := time.Now()
	out := uc.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, dto.ServiceDisconnected, out.Services["database"].Status)
	assert.False(t, uc.Live(context.Background()))
}
