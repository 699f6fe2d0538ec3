package entity

import "time"

// Tipos de actividad.
const (
	ActivityCall         = "call"
	ActivityEmail        = "email"
	ActivityMeeting      = "meeting"
	ActivityNote         = "note"
	ActivityStatusChange = "status_change"
)

// Activity registro de auditoría (solo inserción).
// LeadID nil = actividad a nivel de agencia (resumen de importación, rotaciones).
// UserID nil = generada por el sistema.
type Activity struct {
	ID          string
	ClientID    string
	LeadID      *string
	UserID      *string
	Type        string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// ValidActivityType informa si el tipo es conocido.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityStatusChange:
		return true
	}
	return false
}
