package entity

import "time"

// Tipos de rotación.
const (
	Rotation30Days = "30_days"
	Rotation90Days = "90_days"
)

// RotationDays duración en días de un tipo de rotación (0 si el tipo es desconocido).
func RotationDays(rotationType string) int {
	switch rotationType {
	case Rotation30Days:
		return 30
	case Rotation90Days:
		return 90
	}
	return 0
}

// TeamRotation asignación temporal de un agente a la atención activa de leads.
// Las fechas son días calendario (sin hora) y EndDate > StartDate.
type TeamRotation struct {
	ID           string
	ClientID     string
	UserID       string
	RotationType string
	StartDate    time.Time
	EndDate      time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Overlaps prueba de solape cerrada: existing.start <= end AND existing.end >= start.
func (r *TeamRotation) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

// Conflicts indica si r impide crear/activar otra rotación (userID, tipo, rango):
// solo chocan rotaciones activas del mismo usuario y tipo.
func (r *TeamRotation) Conflicts(userID, rotationType string, start, end time.Time) bool {
	return r.IsActive && r.UserID == userID && r.RotationType == rotationType && r.Overlaps(start, end)
}

// EndsWithin rotación activa que termina en [from, from+d].
func (r *TeamRotation) EndsWithin(from time.Time, d time.Duration) bool {
	return r.IsActive && !r.EndDate.Before(from) && !r.EndDate.After(from.Add(d))
}

// Day normaliza un instante al día calendario (00:00 UTC) usado en las columnas DATE.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
