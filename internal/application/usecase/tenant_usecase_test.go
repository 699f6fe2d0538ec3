package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

func (f *fixture) tenantUC() *usecase.TenantUseCase {
	return usecase.NewTenantUseCase(f.store.Tenants(), f.store.Users())
}

func TestTenantList(t *testing.T) {
	f := newFixture(t)
	out, err := f.tenantUC().List(f.ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
}

func TestEnsureTenant_Idempotente(t *testing.T) {
	f := newFixture(t)
	uc := f.tenantUC()

	first, created, err := uc.EnsureTenant(f.ctx, "Nueva", " Nueva.PL ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "nueva.pl", first.Domain)
	assert.Equal(t, "Europe/Warsaw", first.Settings.Timezone)

	again, created, err := uc.EnsureTenant(f.ctx, "Otra", "nueva.pl")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = uc.EnsureTenant(f.ctx, "x", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnsureUser(t *testing.T) {
	f := newFixture(t)
	uc := f.tenantUC()
	a := tenantA

	u, created, err := uc.EnsureUser(f.ctx, &a, "Nuevo@Agencia-A.pl", "secreto123", "Nuevo Agente", entity.RoleAgent)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "nuevo@agencia-a.pl", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreto123")))

	again, created, err := uc.EnsureUser(f.ctx, &a, "nuevo@agencia-a.pl", "otra", "x", entity.RoleAgent)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)

	admin, created, err := uc.EnsureUser(f.ctx, nil, "root@plataforma.pl", "secreto123", "Root", entity.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, admin.ClientID)

	_, _, err = uc.EnsureUser(f.ctx, &a, "x@agencia-a.pl", "pw", "x", "superuser")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
