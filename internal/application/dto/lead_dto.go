package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// PublicLeadRequest formulario de contacto del sitio público (POST /api/leads).
type PublicLeadRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string `json:"lastName" validate:"omitempty,max=100"`
	Company     string `json:"company" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"omitempty,min=6,max=30"`
	Message     string `json:"message" validate:"required,min=5,max=5000"`
	Position    string `json:"position" validate:"omitempty,max=100"`
	CompanySize string `json:"companySize" validate:"omitempty,max=50"`
	Source      string `json:"source" validate:"omitempty,max=50"`
	Consent     bool   `json:"consent" validate:"eq=true"`
	UTMSource   string `json:"utm_source" validate:"omitempty,max=100"`
	UTMMedium   string `json:"utm_medium" validate:"omitempty,max=100"`
	UTMCampaign string `json:"utm_campaign" validate:"omitempty,max=100"`
}

// PublicLeadData identificadores devueltos al formulario.
type PublicLeadData struct {
	TrackingID string `json:"trackingId"`
	LeadID     string `json:"leadId,omitempty"`
}

// PublicLeadResponse respuesta del formulario público.
type PublicLeadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    PublicLeadData `json:"data"`
}

// QualifyRequest datos de calificación (POST /api/leads/qualify).
// qualificationData admite claves camelCase o snake_case.
type QualifyRequest struct {
	LeadID            string         `json:"leadId" validate:"required,uuid"`
	QualificationData map[string]any `json:"qualificationData" validate:"required,min=1"`
}

// PublicQualifyData lo único que el formulario público ve del lead calificado.
type PublicQualifyData struct {
	LeadID      string     `json:"leadId"`
	Status      string     `json:"status"`
	QualifiedAt *time.Time `json:"qualifiedAt,omitempty"`
}

// QualifyResponse respuesta de calificación del formulario público.
type QualifyResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    *PublicQualifyData `json:"data,omitempty"`
}

// CreateLeadRequest alta manual desde el portal. ClientID se ignora: la agencia siempre
// es la del contexto de confianza.
type CreateLeadRequest struct {
	ClientID           string           `json:"client_id"`
	FirstName          string           `json:"first_name" validate:"required,min=2,max=100"`
	LastName           string           `json:"last_name" validate:"omitempty,max=100"`
	Company            string           `json:"company" validate:"required,max=200"`
	Email              string           `json:"email" validate:"required,email,max=254"`
	Phone              string           `json:"phone" validate:"omitempty,min=6,max=30"`
	Status             string           `json:"status" validate:"omitempty,lead_status"`
	Priority           string           `json:"priority" validate:"omitempty,priority"`
	Source             string           `json:"source" validate:"omitempty,max=50"`
	AssignedTo         string           `json:"assigned_to" validate:"omitempty,uuid"`
	EstimatedValue     *decimal.Decimal `json:"estimated_value"`
	ClosingProbability *int             `json:"closing_probability" validate:"omitempty,min=0,max=100"`
	Notes              string           `json:"notes" validate:"omitempty,max=5000"`
}

// UpdateLeadRequest actualización parcial; solo se aplican los campos presentes.
// AssignedTo "" desasigna. ID solo se usa en PATCH /api/client/leads.
type UpdateLeadRequest struct {
	ID                 string           `json:"id" validate:"omitempty,uuid"`
	ClientID           string           `json:"client_id"`
	Status             *string          `json:"status" validate:"omitempty,lead_status"`
	Priority           *string          `json:"priority" validate:"omitempty,priority"`
	AssignedTo         *string          `json:"assigned_to" validate:"omitempty"`
	Notes              *string          `json:"notes" validate:"omitempty,max=5000"`
	EstimatedValue     *decimal.Decimal `json:"estimated_value"`
	ClosingProbability *int             `json:"closing_probability" validate:"omitempty,min=0,max=100"`
}

// IsEmpty no trae ningún cambio.
func (r UpdateLeadRequest) IsEmpty() bool {
	return r.Status == nil && r.Priority == nil && r.AssignedTo == nil && r.Notes == nil &&
		r.EstimatedValue == nil && r.ClosingProbability == nil
}

// UpdatePriorityRequest PATCH /api/client/leads/:id/priority.
type UpdatePriorityRequest struct {
	Priority string `json:"priority" validate:"required,priority"`
}

// AssignLeadRequest PATCH /api/client/leads/:id/assign. AssignedTo vacío desasigna.
type AssignLeadRequest struct {
	AssignedTo string `json:"assigned_to" validate:"omitempty,uuid"`
}

// LeadListRequest filtros de GET /api/client/leads.
type LeadListRequest struct {
	PageRequest
	Status     string `query:"status" validate:"omitempty,lead_status"`
	Priority   string `query:"priority" validate:"omitempty,priority"`
	Source     string `query:"source" validate:"omitempty,max=50"`
	AssignedTo string `query:"assigned_to" validate:"omitempty,uuid"`
	Search     string `query:"search" validate:"omitempty,max=200"`
	ClientID   string `query:"client_id" validate:"omitempty,uuid"` // solo vista de plataforma
}

// LeadResponse salida de un lead.
type LeadResponse struct {
	ID                 string                `json:"id"`
	ClientID           string                `json:"client_id"`
	FirstName          string                `json:"first_name"`
	LastName           string                `json:"last_name"`
	Company            string                `json:"company"`
	Email              string                `json:"email"`
	Phone              string                `json:"phone"`
	Status             string                `json:"status"`
	Priority           string                `json:"priority"`
	Source             string                `json:"source"`
	AssignedTo         *string               `json:"assigned_to"`
	EstimatedValue     *decimal.Decimal      `json:"estimated_value"`
	ClosingProbability int                   `json:"closing_probability"`
	Score              int                   `json:"score"`
	Notes              string                `json:"notes"`
	Qualification      *entity.Qualification `json:"qualification,omitempty"`
	QualifiedAt        *time.Time            `json:"qualified_at"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// LeadListResponse listado paginado.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LeadStatsResponse métricas derivadas del pipeline.
type LeadStatsResponse struct {
	Total          int             `json:"total"`
	New            int             `json:"new"`
	Contacted      int             `json:"contacted"`
	Qualified      int             `json:"qualified"`
	Proposal       int             `json:"proposal"`
	Closed         int             `json:"closed"`
	Lost           int             `json:"lost"`
	PipelineValue  decimal.Decimal `json:"pipeline_value"`  // valor estimado de leads abiertos
	WonValue       decimal.Decimal `json:"won_value"`       // valor estimado de leads cerrados
	ConversionRate decimal.Decimal `json:"conversion_rate"` // closed / total * 100 (0 si total = 0)
}

// CreateActivityRequest registro manual de una interacción.
type CreateActivityRequest struct {
	Type        string         `json:"type" validate:"required,oneof=call email meeting note"`
	Description string         `json:"description" validate:"required,min=1,max=2000"`
	Metadata    map[string]any `json:"metadata"`
}

// ActivityResponse salida de una actividad.
type ActivityResponse struct {
	ID          string         `json:"id"`
	LeadID      *string        `json:"lead_id"`
	UserID      *string        `json:"user_id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
