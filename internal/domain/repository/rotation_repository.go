package repository

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// RotationFilter criterios de listado de rotaciones dentro de una agencia.
type RotationFilter struct {
	ClientID     string
	RotationType string
	UserID       string
	IsActive     *bool
}

// RotationRepository puerto de persistencia de rotaciones de equipo (nunca se borran).
type RotationRepository interface {
	Create(ctx context.Context, rotation *entity.TeamRotation) error
	GetByID(ctx context.Context, clientID, id string) (*entity.TeamRotation, error)
	Update(ctx context.Context, rotation *entity.TeamRotation) error
	List(ctx context.Context, f RotationFilter) ([]*entity.TeamRotation, error)
	// FindOverlapping rotaciones activas del mismo (agencia, usuario, tipo) que intersectan
	// [start, end], excluyendo excludeID si no está vacío.
	FindOverlapping(ctx context.Context, clientID, userID, rotationType string, start, end time.Time, excludeID string) ([]*entity.TeamRotation, error)
}
