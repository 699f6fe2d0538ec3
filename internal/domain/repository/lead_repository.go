package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// LeadFilter criterios de listado. ClientID nil solo se usa desde la vista de plataforma.
type LeadFilter struct {
	ClientID   *string
	Status     string
	Priority   string
	Source     string
	AssignedTo string
	Search     string
	Limit      int
	Offset     int
}

// LeadStatusAggregate fila agregada por estado (conteo y suma de valor estimado).
type LeadStatusAggregate struct {
	Status string
	Count  int
	Value  decimal.Decimal
}

// LeadRepository puerto de persistencia de leads. Toda lectura/escritura de un lead
// concreto se filtra por ClientID; Update nunca modifica client_id.
type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	GetByID(ctx context.Context, clientID, id string) (*entity.Lead, error)
	// FindByID sin filtro de agencia: solo para el formulario público de calificación.
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	// GetByEmail búsqueda por email normalizado dentro de la agencia.
	GetByEmail(ctx context.Context, clientID, email string) (*entity.Lead, error)
	Update(ctx context.Context, lead *entity.Lead) error
	List(ctx context.Context, f LeadFilter) ([]*entity.Lead, int, error)
	// AssignedBetween leads asignados a userID creados en [from, to].
	AssignedBetween(ctx context.Context, clientID, userID string, from, to time.Time) ([]*entity.Lead, error)
	// AggregateByStatus clientID nil = global.
	AggregateByStatus(ctx context.Context, clientID *string) ([]LeadStatusAggregate, error)
}
