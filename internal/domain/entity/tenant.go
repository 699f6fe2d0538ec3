package entity

import "time"

// Planes de suscripción.
const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Tenant representa una agencia cliente (organización aislada del resto).
// El dominio es único e inmutable una vez creado.
type Tenant struct {
	ID               string
	Name             string
	Domain           string
	Settings         TenantSettings
	SubscriptionPlan string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WorkingHours franja laboral en formato HH:MM.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TenantSettings preferencias de la agencia (se persiste como JSONB).
type TenantSettings struct {
	Timezone      string         `json:"timezone"`
	Currency      string         `json:"currency"`
	WorkingHours  WorkingHours   `json:"working_hours"`
	ScoringWeight ScoringWeights `json:"lead_scoring_weights"`
}

// Location zona horaria de la agencia; UTC si no está configurada o es inválida.
func (s TenantSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CurrencyOrDefault moneda configurada o PLN.
func (s TenantSettings) CurrencyOrDefault() string {
	if s.Currency == "" {
		return "PLN"
	}
	return s.Currency
}

// DefaultTenantSettings valores iniciales al aprovisionar una agencia.
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		Timezone:      "Europe/Warsaw",
		Currency:      "PLN",
		WorkingHours:  WorkingHours{Start: "09:00", End: "17:00"},
		ScoringWeight: DefaultScoringWeights(),
	}
}
