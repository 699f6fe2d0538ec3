package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

// TenantUseCase directorio de agencias (vista de plataforma) y aprovisionamiento inicial.
type TenantUseCase struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
}

// NewTenantUseCase construye el caso de uso.
func NewTenantUseCase(tenants repository.TenantRepository, users repository.UserRepository) *TenantUseCase {
	return &TenantUseCase{tenants: tenants, users: users}
}

// List agencias paginadas.
func (uc *TenantUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.TenantListResponse, error) {
	page.DefaultPage()
	list, err := uc.tenants.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar agencias: %w", err)
	}
	out := &dto.TenantListResponse{Items: make([]dto.TenantResponse, 0, len(list))}
	for _, t := range list {
		out.Items = append(out.Items, dto.TenantResponse{
			ID:               t.ID,
			Name:             t.Name,
			Domain:           t.Domain,
			SubscriptionPlan: t.SubscriptionPlan,
			Settings:         t.Settings,
			CreatedAt:        t.CreatedAt,
		})
	}
	out.Page = dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(out.Items)}
	return out, nil
}

// EnsureTenant devuelve la agencia con ese dominio, creándola si no existe. Idempotente.
func (uc *TenantUseCase) EnsureTenant(ctx context.Context, name, domainName string) (*entity.Tenant, bool, error) {
	domainName = strings.ToLower(strings.TrimSpace(domainName))
	if domainName == "" {
		return nil, false, fmt.Errorf("%w: dominio vacío", domain.ErrInvalidInput)
	}
	existing, err := uc.tenants.GetByDomain(ctx, domainName)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	now := time.Now().UTC()
	t := &entity.Tenant{
		ID:               uuid.New().String(),
		Name:             name,
		Domain:           domainName,
		Settings:         entity.DefaultTenantSettings(),
		SubscriptionPlan: entity.PlanStarter,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.tenants.Create(ctx, t); err != nil {
		return nil, false, fmt.Errorf("crear agencia: %w", err)
	}
	return t, true, nil
}

// EnsureUser crea el usuario si no existe (clientID nil = usuario de plataforma). Idempotente
// por (agencia, email).
func (uc *TenantUseCase) EnsureUser(ctx context.Context, clientID *string, email, password, fullName, role string) (*entity.User, bool, error) {
	if !entity.ValidRole(role) {
		return nil, false, fmt.Errorf("%w: rol %q", domain.ErrInvalidInput, role)
	}
	if password == "" {
		return nil, false, fmt.Errorf("%w: password vacío", domain.ErrInvalidInput)
	}
	email = entity.NormalizeEmail(email)
	var (
		existing *entity.User
		err      error
	)
	if clientID != nil {
		existing, err = uc.users.GetByEmailAndClient(ctx, email, *clientID)
	} else {
		existing, err = uc.users.FindByEmail(ctx, email)
		if existing != nil && existing.ClientID != nil {
			return nil, false, fmt.Errorf("%w: %s pertenece a una agencia", domain.ErrConflict, email)
		}
	}
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	u := &entity.User{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, false, fmt.Errorf("crear usuario %s: %w", email, err)
		}
		return nil, false, fmt.Errorf("crear usuario: %w", err)
	}
	return u, true, nil
}
