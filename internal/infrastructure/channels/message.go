// Package channels canales de notificación de eventos de leads: correo (SMTP), webhook de
// Slack y sincronización de contactos con HubSpot.
package channels

import (
	"fmt"
	"strings"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
)

// subject asunto corto del evento.
func subject(e ports.LeadEvent) string {
	name := e.Lead.FullName()
	switch e.Type {
	case ports.EventLeadCreated:
		return fmt.Sprintf("Nuevo lead: %s (%s)", name, e.Lead.Company)
	case ports.EventLeadQualified:
		return fmt.Sprintf("Lead calificado: %s (score %d)", name, e.Score)
	case ports.EventLeadStatusChanged:
		return fmt.Sprintf("Lead %s: %s -> %s", name, e.PreviousStatus, e.Lead.Status)
	case ports.EventLeadAssigned:
		return fmt.Sprintf("Lead asignado: %s", name)
	case ports.EventLeadResubmitted:
		return fmt.Sprintf("Nuevo mensaje de %s (%s)", name, e.Lead.Company)
	}
	return "Evento de lead: " + e.Type
}

// body texto plano con los datos del lead.
func body(e ports.LeadEvent) string {
	var b strings.Builder
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
	}
	line("Agencia", e.TenantName)
	line("Nombre", e.Lead.FullName())
	line("Empresa", e.Lead.Company)
	line("Email", e.Lead.Email)
	line("Teléfono", e.Lead.Phone)
	line("Origen", e.Lead.Source)
	line("Estado", e.Lead.Status)
	line("Prioridad", e.Lead.Priority)
	if e.Score > 0 {
		line("Score", fmt.Sprint(e.Score))
	}
	line("Mensaje", e.Message)
	line("Tracking", e.TrackingID)
	return b.String()
}
