// migrate aplica los scripts SQL embebidos en internal/infrastructure/postgres/migrations.
//
// Uso: go run ./cmd/migrate
// Lee la conexión de DATABASE_URL o de DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME.
package main

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/postgres"
	"github.com/jhoicas/agencia-leads-api/pkg/config"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "migrate"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	for _, name := range applied {
		log.Info().Str("script", name).Msg("migración aplicada")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) == 0 {
		log.Info().Msg("esquema al día")
	}
}
