// Package natsbus publica los eventos de leads y el registro de respaldo del formulario
// público en NATS.
package natsbus

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jhoicas/agencia-leads-api/pkg/config"
)

// Connect abre la conexión con reconexión infinita.
func Connect(cfg config.NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
	}
	return nats.Connect(cfg.URL, opts...)
}

// Pinger comprobación de salud: conexión viva y round-trip con el servidor.
type Pinger struct {
	nc *nats.Conn
}

// NewPinger envuelve la conexión.
func NewPinger(nc *nats.Conn) *Pinger { return &Pinger{nc: nc} }

// Ping implementa el chequeo de salud.
func (p *Pinger) Ping(ctx context.Context) error {
	if p.nc == nil || !p.nc.IsConnected() {
		return errors.New("nats: desconectado")
	}
	timeout := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	return p.nc.FlushTimeout(timeout)
}
