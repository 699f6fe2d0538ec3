// bootstrap crea de forma idempotente la agencia por defecto (DEFAULT_TENANT_DOMAIN), su
// manager y el administrador de plataforma. Ejecutar después de cmd/migrate.
//
// Variables: BOOTSTRAP_TENANT_NAME, BOOTSTRAP_MANAGER_EMAIL, BOOTSTRAP_MANAGER_PASSWORD,
// BOOTSTRAP_ADMIN_EMAIL, BOOTSTRAP_ADMIN_PASSWORD.
package main

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/postgres"
	"github.com/jhoicas/agencia-leads-api/pkg/config"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "bootstrap"})
	if cfg.Tenancy.DefaultTenantDomain == "" {
		log.Fatal().Msg("DEFAULT_TENANT_DOMAIN no configurado")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := usecase.NewTenantUseCase(postgres.NewTenantRepository(pool), postgres.NewUserRepository(pool))
	b := cfg.Bootstrap

	tenant, created, err := uc.EnsureTenant(ctx, b.TenantName, cfg.Tenancy.DefaultTenantDomain)
	if err != nil {
		log.Fatal().Err(err).Msg("agencia por defecto")
	}
	log.Info().Str("tenant_id", tenant.ID).Str("domain", tenant.Domain).Bool("created", created).Msg("agencia por defecto")

	if b.ManagerEmail != "" {
		u, created, err := uc.EnsureUser(ctx, &tenant.ID, b.ManagerEmail, b.ManagerPassword, "Manager", entity.RoleManager)
		if err != nil {
			log.Fatal().Err(err).Str("email", b.ManagerEmail).Msg("manager de la agencia")
		}
		log.Info().Str("user_id", u.ID).Bool("created", created).Msg("manager de la agencia")
	}
	if b.AdminEmail != "" {
		u, created, err := uc.EnsureUser(ctx, nil, b.AdminEmail, b.AdminPassword, "Administrador", entity.RoleAdmin)
		if err != nil {
			log.Fatal().Err(err).Str("email", b.AdminEmail).Msg("administrador de plataforma")
		}
		log.Info().Str("user_id", u.ID).Bool("created", created).Msg("administrador de plataforma")
	}
}
