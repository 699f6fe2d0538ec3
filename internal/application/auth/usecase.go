package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
	"github.com/jhoicas/agencia-leads-api/pkg/session"
)

// ErrStoreUnavailable el almacén de usuarios no respondió al resolver la sesión.
// La puerta de autorización falla cerrada ante este error.
var ErrStoreUnavailable = errors.New("auth: almacén de identidades no disponible")

// Principal identidad verificada de la petición. TenantID y Role salen siempre del registro
// de usuario, nunca del token ni de cabeceras del cliente.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
	User     *entity.User
}

// IsPlatformAdmin administrador sin agencia.
func (p *Principal) IsPlatformAdmin() bool {
	return p != nil && p.User.IsPlatformAdmin()
}

// Resolved resultado de validar una sesión. RefreshedToken no vacío cuando el token estaba
// por expirar y se emitió uno nuevo.
type Resolved struct {
	Principal        Principal
	ExpiresAt        time.Time
	RefreshedToken   string
	RefreshedExpires time.Time
}

// AuthUseCase login y resolución de sesiones.
type AuthUseCase struct {
	userRepo   repository.UserRepository
	tenantRepo repository.TenantRepository
	sessions   *session.Manager
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, tenantRepo repository.TenantRepository, sessions *session.Manager) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, tenantRepo: tenantRepo, sessions: sessions}
}

// Login verifica email/password y emite el token de sesión. Con Domain se busca el usuario
// dentro de esa agencia; sin él, el primero con ese email.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := entity.NormalizeEmail(in.Email)
	var (
		user *entity.User
		err  error
	)
	if d := strings.TrimSpace(in.Domain); d != "" {
		tenant, terr := uc.tenantRepo.GetByDomain(ctx, strings.ToLower(d))
		if terr != nil {
			return nil, fmt.Errorf("login: tenant: %w", terr)
		}
		if tenant == nil {
			return nil, domain.ErrUnauthorized
		}
		user, err = uc.userRepo.GetByEmailAndClient(ctx, email, tenant.ID)
	} else {
		user, err = uc.userRepo.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("login: user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, exp, err := uc.sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      *ToUserResponse(user),
	}, nil
}

// Resolve valida el token y carga el usuario para obtener agencia y rol actuales.
// Token inválido o usuario inexistente: domain.ErrUnauthorized. Fallo del almacén:
// ErrStoreUnavailable.
func (uc *AuthUseCase) Resolve(ctx context.Context, token string) (*Resolved, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	parsed, err := uc.sessions.Parse(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByID(ctx, parsed.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	out := &Resolved{
		Principal: Principal{
			UserID:   user.ID,
			TenantID: user.TenantID(),
			Role:     user.Role,
			User:     user,
		},
		ExpiresAt: parsed.ExpiresAt,
	}
	if uc.sessions.NeedsRefresh(parsed) {
		tok, exp, err := uc.sessions.Issue(user.ID)
		if err == nil {
			out.RefreshedToken = tok
			out.RefreshedExpires = exp
		}
	}
	return out, nil
}

// Me devuelve el contexto de confianza con usuario y agencia.
func (uc *AuthUseCase) Me(ctx context.Context, p Principal) (*dto.MeResponse, error) {
	out := &dto.MeResponse{
		UserID:   p.UserID,
		ClientID: p.TenantID,
		Role:     p.Role,
		User:     ToUserResponse(p.User),
	}
	if p.TenantID != "" {
		tenant, err := uc.tenantRepo.GetByID(ctx, p.TenantID)
		if err != nil {
			return nil, err
		}
		if tenant != nil {
			t := ToTenantResponse(tenant)
			out.Tenant = &t
		}
	}
	return out, nil
}

// SessionTTL duración de un token recién emitido.
func (uc *AuthUseCase) SessionTTL() time.Duration {
	return uc.sessions.TTL()
}

// HashPassword bcrypt con el coste por defecto (alta de usuarios y bootstrap).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ToUserResponse mapea un usuario sin exponer el hash.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		ClientID:  u.ClientID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ToTenantResponse mapea una agencia.
func ToTenantResponse(t *entity.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		ID:               t.ID,
		Name:             t.Name,
		Domain:           t.Domain,
		SubscriptionPlan: t.SubscriptionPlan,
		Settings:         t.Settings,
		CreatedAt:        t.CreatedAt,
	}
}
