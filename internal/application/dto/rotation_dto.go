package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout formato de fechas de rotación en la API.
const DateLayout = "2006-01-02"

// CreateRotationRequest POST /api/client/team/rotation.
type CreateRotationRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	RotationType string `json:"rotation_type" validate:"required,rotation_type"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateRotationRequest PATCH /api/client/team/rotation/:id.
type UpdateRotationRequest struct {
	IsActive *bool   `json:"is_active"`
	EndDate  *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// RotationListRequest filtros de GET /api/client/team/rotation.
type RotationListRequest struct {
	RotationType string `query:"type" validate:"omitempty,rotation_type"`
	UserID       string `query:"user_id" validate:"omitempty,uuid"`
	Active       string `query:"active" validate:"omitempty,oneof=true false"`
}

// RotationPerformance desempeño del agente dentro de la ventana de la rotación.
type RotationPerformance struct {
	LeadsAssigned  int             `json:"leads_assigned"`
	LeadsClosed    int             `json:"leads_closed"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	Revenue        decimal.Decimal `json:"revenue"`
}

// RotationResponse salida de una rotación.
type RotationResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	UserName      string               `json:"user_name,omitempty"`
	RotationType  string               `json:"rotation_type"`
	StartDate     string               `json:"start_date"`
	EndDate       string               `json:"end_date"`
	IsActive      bool                 `json:"is_active"`
	DaysRemaining int                  `json:"days_remaining"`
	Performance   *RotationPerformance `json:"performance,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// RotationStats agregados del listado.
type RotationStats struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	ByType     map[string]int `json:"by_type"`
	EndingSoon int            `json:"ending_soon"` // activas que terminan en los próximos 7 días
}

// RotationListResponse listado con estadísticas.
type RotationListResponse struct {
	Rotations []RotationResponse `json:"rotations"`
	Stats     RotationStats      `json:"stats"`
}

// ScheduleRequest PUT /api/client/team/rotation (planificación, sin escrituras).
type ScheduleRequest struct {
	RotationType string `json:"rotation_type" validate:"required,rotation_type"`
}

// ScheduleProposal propuesta para un agente.
type ScheduleProposal struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"` // "continues_current" | "staggered"
}

// ScheduleResponse calendario propuesto.
type ScheduleResponse struct {
	RotationType string             `json:"rotation_type"`
	Proposals    []ScheduleProposal `json:"proposals"`
}

// TeamMemberResponse miembro del equipo de la agencia.
type TeamMemberResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
