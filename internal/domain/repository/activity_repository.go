package repository

import (
	"context"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// ActivityRepository registro de auditoría de solo inserción.
type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.Activity) error
	ListByLead(ctx context.Context, clientID, leadID string, limit int) ([]*entity.Activity, error)
	ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.Activity, error)
}
