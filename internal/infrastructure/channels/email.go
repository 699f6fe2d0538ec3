package channels

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/pkg/config"
)

var _ ports.Notifier = (*Email)(nil)

// Email aviso al buzón de ventas por SMTP.
type Email struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

// NewEmail construye el canal desde la configuración SMTP.
func NewEmail(cfg config.SMTPConfig) *Email {
	return &Email{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
	}
}

// Name implementa ports.Notifier.
func (n *Email) Name() string { return "email" }

// Notify envía el correo. gomail no acepta contexto: si ctx vence antes se devuelve su error
// y el envío en curso termina en segundo plano.
func (n *Email) Notify(ctx context.Context, e ports.LeadEvent) error {
	msg := n.message(e)
	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: %w", ctx.Err())
	}
}

func (n *Email) message(e ports.LeadEvent) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	if e.Lead.Email != "" {
		m.SetHeader("Reply-To", e.Lead.Email)
	}
	m.SetHeader("Subject", subject(e))
	m.SetBody("text/plain", body(e))
	return m
}
