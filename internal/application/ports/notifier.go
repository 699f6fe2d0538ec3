package ports

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// Tipos de evento del ciclo de vida de un lead.
const (
	EventLeadCreated       = "lead.created"
	EventLeadQualified     = "lead.qualified"
	EventLeadStatusChanged = "lead.status_changed"
	EventLeadAssigned      = "lead.assigned"
	// EventLeadResubmitted un contacto ya registrado vuelve a enviar el formulario.
	EventLeadResubmitted = "lead.resubmitted"
)

// LeadEvent evento que se difunde a los canales de notificación.
// Lead es una copia: los canales no deben modificarlo.
type LeadEvent struct {
	Type           string
	TenantID       string
	TenantName     string
	Lead           entity.Lead
	Score          int
	PreviousStatus string
	Message        string
	TrackingID     string
	OccurredAt     time.Time
}

// Notifier canal de salida (correo, chat, CRM, bus de eventos).
// Notify recibe un contexto con timeout; un error solo se registra en el log.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event LeadEvent) error
}

// EventPublisher entrega eventos al fan-out sin bloquear a quien llama.
type EventPublisher interface {
	Publish(event LeadEvent)
}
