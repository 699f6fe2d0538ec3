package repository

import (
	"context"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindByEmail primer usuario con ese email en cualquier agencia (login sin dominio).
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailAndClient(ctx context.Context, email, clientID string) (*entity.User, error)
	// ListByClient usuarios de la agencia; role vacío = todos los roles. Ordenados por nombre.
	ListByClient(ctx context.Context, clientID, role string) ([]*entity.User, error)
}
