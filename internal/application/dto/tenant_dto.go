package dto

import (
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

// TenantResponse salida de una agencia.
type TenantResponse struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Domain           string                `json:"domain"`
	SubscriptionPlan string                `json:"subscription_plan"`
	Settings         entity.TenantSettings `json:"settings"`
	CreatedAt        time.Time             `json:"created_at"`
}

// TenantListResponse listado paginado.
type TenantListResponse struct {
	Items []TenantResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
