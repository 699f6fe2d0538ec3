package repository

import (
	"context"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// TenantRepository puerto de persistencia del directorio de agencias.
// Los Get devuelven (nil, nil) cuando no existe el registro.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*entity.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Tenant, error)
}
