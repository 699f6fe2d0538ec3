package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
)

var (
	_ ports.Notifier     = (*Notifier)(nil)
	_ ports.IntakeLedger = (*Ledger)(nil)
)

// publisher subconjunto de *nats.Conn que se usa aquí.
type publisher interface {
	PublishMsg(m *nats.Msg) error
}

// jsPublisher subconjunto de nats.JetStreamContext: publicación con ack.
type jsPublisher interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// EventMessage cuerpo JSON publicado en <prefix>.<tipo de evento>.
type EventMessage struct {
	Type           string    `json:"type"`
	TenantID       string    `json:"tenant_id"`
	LeadID         string    `json:"lead_id,omitempty"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Company        string    `json:"company"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Source         string    `json:"source"`
	AssignedTo     string    `json:"assigned_to,omitempty"`
	Score          int       `json:"score"`
	TrackingID     string    `json:"tracking_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier canal "nats" del fan-out.
type Notifier struct {
	pub    publisher
	prefix string
}

// NewNotifier publica bajo prefix (p. ej. "leads" -> "leads.lead.created").
func NewNotifier(pub publisher, prefix string) *Notifier {
	return &Notifier{pub: pub, prefix: prefix}
}

// Name implementa ports.Notifier.
func (n *Notifier) Name() string { return "nats" }

// Notify publica el evento (core NATS, sin ack). La cabecera Nats-Msg-Id permite
// deduplicar si un stream captura estos subjects.
func (n *Notifier) Notify(ctx context.Context, e ports.LeadEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := EventMessage{
		Type:           e.Type,
		TenantID:       e.TenantID,
		LeadID:         e.Lead.ID,
		Email:          e.Lead.Email,
		FullName:       e.Lead.FullName(),
		Company:        e.Lead.Company,
		Status:         e.Lead.Status,
		PreviousStatus: e.PreviousStatus,
		Source:         e.Lead.Source,
		Score:          e.Score,
		TrackingID:     e.TrackingID,
		OccurredAt:     e.OccurredAt,
	}
	if e.Lead.AssignedTo != nil {
		m.AssignedTo = *e.Lead.AssignedTo
	}
	msgID := e.TrackingID
	if msgID == "" {
		msgID = e.Type + ":" + e.Lead.ID + ":" + e.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
	return publishJSON(n.pub, n.prefix+"."+e.Type, msgID, m)
}

// Ledger guarda en <prefix>.intake.fallback los envíos que no pudieron persistirse. Publica
// en JetStream y solo da el registro por bueno cuando el stream confirma (ack).
type Ledger struct {
	js      jsPublisher
	subject string
	timeout time.Duration
}

// NewLedger construye el sink de respaldo. El stream que cubre IntakeSubjects(prefix)
// debe existir (ver EnsureIntakeStream).
func NewLedger(js jsPublisher, prefix string) *Ledger {
	return &Ledger{js: js, subject: prefix + ".intake.fallback", timeout: 5 * time.Second}
}

// Record publica el registro y espera el ack. Nats-Msg-Id = tracking ID, así un
// reintento dentro de la ventana de duplicados no se guarda dos veces.
func (l *Ledger) Record(ctx context.Context, rec ports.IntakeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := newJSONMsg(l.subject, rec.TrackingID, rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ack, err := l.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("nats: jetstream %s sin ack: %w", l.subject, err)
	}
	if ack == nil || ack.Stream == "" {
		return fmt.Errorf("nats: jetstream %s: ack vacío", l.subject)
	}
	return nil
}

func publishJSON(pub publisher, subject, msgID string, v any) error {
	msg, err := newJSONMsg(subject, msgID, v)
	if err != nil {
		return err
	}
	if err := pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats: publicar %s: %w", subject, err)
	}
	return nil
}

func newJSONMsg(subject, msgID string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("nats: serializar: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	if msgID != "" {
		msg.Header.Set(nats.MsgIdHdr, msgID)
	}
	return msg, nil
}
