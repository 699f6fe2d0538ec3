// Package notify difunde los eventos de leads a los canales configurados sin bloquear la
// respuesta HTTP. Un canal que falla o excede el timeout no afecta a los demás.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

var _ ports.EventPublisher = (*Dispatcher)(nil)

// Dispatcher fan-out asíncrono con timeout por canal.
type Dispatcher struct {
	notifiers []ports.Notifier
	timeout   time.Duration
	log       *logger.Logger
	wg        sync.WaitGroup
}

// NewDispatcher construye el dispatcher; timeout <= 0 usa 5s.
func NewDispatcher(log *logger.Logger, timeout time.Duration, notifiers ...ports.Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout, log: log.Component("notify")}
}

// Channels nombres de los canales activos.
func (d *Dispatcher) Channels() []string {
	out := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		out = append(out, n.Name())
	}
	return out
}

// Publish lanza una goroutine por canal. El contexto es independiente de la petición
// para que la cancelación del cliente no corte el envío.
func (d *Dispatcher) Publish(event ports.LeadEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n ports.Notifier) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error().Str("channel", n.Name()).Interface("panic", r).Msg("notificación abortada")
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			start := time.Now()
			if err := n.Notify(ctx, event); err != nil {
				d.log.Warn().Err(err).
					Str("channel", n.Name()).
					Str("event", event.Type).
					Str("lead_id", event.Lead.ID).
					Str("tenant_id", event.TenantID).
					Msg("fallo al notificar")
				return
			}
			d.log.Debug().
				Str("channel", n.Name()).
				Str("event", event.Type).
				Dur("elapsed", time.Since(start)).
				Msg("notificación enviada")
		}(n)
	}
}

// Wait bloquea hasta que terminen los envíos en curso (apagado ordenado y pruebas).
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
