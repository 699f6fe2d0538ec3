package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/agencia-leads-api/internal/application/auth"
	"github.com/jhoicas/agencia-leads-api/internal/application/notify"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/channels"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/csvio"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/memory"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/natsbus"
	infrapdf "github.com/jhoicas/agencia-leads-api/internal/infrastructure/pdf"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/postgres"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/ratelimit"
	httpRouter "github.com/jhoicas/agencia-leads-api/internal/interfaces/http"
	"github.com/jhoicas/agencia-leads-api/pkg/config"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
	"github.com/jhoicas/agencia-leads-api/pkg/session"
)

const swaggerFile = "./docs/swagger.json"

// repos repositorios del driver elegido en STORE_DRIVER.
type repos struct {
	tenants    repository.TenantRepository
	users      repository.UserRepository
	leads      repository.LeadRepository
	activities repository.ActivityRepository
	rotations  repository.RotationRepository
	pinger     usecase.Pinger
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer store.close()

	healthChecks := []usecase.HealthCheck{
		{Name: "database", Pinger: store.pinger, Required: true},
	}

	// Rate limiting: Redis si está configurado (compartido entre réplicas), memoria si no.
	var limiter ports.RateLimiter
	if cfg.Redis.Enabled() {
		rdb := ratelimit.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb, "ratelimit:", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
		healthChecks = append(healthChecks, usecase.HealthCheck{Name: "redis", Pinger: redisPinger(rdb)})
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
		healthChecks = append(healthChecks, usecase.HealthCheck{Name: "redis"})
	}

	// Canales de notificación: solo los configurados entran en el fan-out.
	var (
		notifiers []ports.Notifier
		ledger    ports.IntakeLedger
	)
	if cfg.NATS.Enabled() {
		nc, err := natsbus.Connect(cfg.NATS)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("conexión a NATS")
		}
		defer drainNATS(nc, log)
		notifiers = append(notifiers, natsbus.NewNotifier(nc, cfg.NATS.SubjectPrefix))

		// Sink de respaldo del formulario: JetStream con ack sobre un stream en disco.
		js, err := nc.JetStream()
		if err != nil {
			log.Fatal().Err(err).Msg("contexto JetStream")
		}
		if err := natsbus.EnsureIntakeStream(js, cfg.NATS.IntakeStream, cfg.NATS.SubjectPrefix, cfg.NATS.IntakeRetention()); err != nil {
			log.Fatal().Err(err).Str("stream", cfg.NATS.IntakeStream).Msg("stream de respaldo del formulario")
		}
		ledger = natsbus.NewLedger(js, cfg.NATS.SubjectPrefix)
		healthChecks = append(healthChecks, usecase.HealthCheck{Name: "nats", Pinger: natsbus.NewPinger(nc)})
	} else {
		healthChecks = append(healthChecks, usecase.HealthCheck{Name: "nats"})
	}
	if cfg.SMTP.Enabled() {
		notifiers = append(notifiers, channels.NewEmail(cfg.SMTP))
	}
	if cfg.Slack.Enabled() {
		notifiers = append(notifiers, channels.NewSlack(cfg.Slack.WebhookURL))
	}
	if cfg.HubSpot.Enabled() {
		notifiers = append(notifiers, channels.NewHubSpot(cfg.HubSpot))
	}
	dispatcher := notify.NewDispatcher(log, cfg.Notify.Timeout(), notifiers...)
	log.Info().Strs("channels", dispatcher.Channels()).Msg("canales de notificación")

	sessions, err := session.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL(), cfg.JWT.Refresh())
	if err != nil {
		log.Fatal().Err(err).Msg("gestor de sesiones")
	}

	codec := csvio.NewCodec()
	authUC := auth.NewAuthUseCase(store.users, store.tenants, sessions)
	leadUC := usecase.NewLeadUseCase(store.leads, store.activities, store.users, store.tenants, dispatcher, log)
	intakeUC := usecase.NewIntakeUseCase(store.leads, store.activities, store.tenants, ledger, dispatcher, cfg.Tenancy.DefaultTenantDomain, log)
	importUC := usecase.NewImportUseCase(store.leads, store.activities, codec, log)
	exportUC := usecase.NewExportUseCase(store.leads, store.tenants, codec, infrapdf.NewPipelineRenderer())
	rotationUC := usecase.NewRotationUseCase(store.rotations, store.users, store.leads, store.activities, store.tenants, log)
	tenantUC := usecase.NewTenantUseCase(store.tenants, store.users)
	healthUC := usecase.NewHealthUseCase(cfg.App.Name, 2*time.Second, healthChecks...)

	if cfg.Store.Driver == config.StoreMemory && cfg.Tenancy.DefaultTenantDomain != "" {
		if _, _, err := tenantUC.EnsureTenant(ctx, cfg.App.Name, cfg.Tenancy.DefaultTenantDomain); err != nil {
			log.Warn().Err(err).Msg("agencia por defecto en memoria")
		}
	}

	appCfg := httpRouter.AppConfig{Name: cfg.App.Name}
	if _, err := os.Stat(swaggerFile); err == nil {
		appCfg.SwaggerFile = swaggerFile
	}
	app := httpRouter.NewApp(appCfg, httpRouter.RouterDeps{
		AuthUC:     authUC,
		LeadUC:     leadUC,
		IntakeUC:   intakeUC,
		ImportUC:   importUC,
		ExportUC:   exportUC,
		RotationUC: rotationUC,
		TenantUC:   tenantUC,
		HealthUC:   healthUC,
		Limiter:    limiter,
		Metrics:    httpRouter.NewMetrics("agencia_leads"),
		Session: httpRouter.GateConfig{
			CookieName:   cfg.JWT.CookieName,
			CookieSecure: cfg.JWT.CookieSecure,
		},
		Log: log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Notificaciones en curso: se esperan antes de cerrar conexiones.
	dispatcher.Wait()

	log.Info().Msg("aplicación detenida")
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repos, error) {
	if cfg.Store.Driver == config.StoreMemory {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &repos{
			tenants:    s.Tenants(),
			users:      s.Users(),
			leads:      s.Leads(),
			activities: s.Activities(),
			rotations:  s.Rotations(),
			pinger:     s,
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &repos{
		tenants:    postgres.NewTenantRepository(pool),
		users:      postgres.NewUserRepository(pool),
		leads:      postgres.NewLeadRepository(pool),
		activities: postgres.NewActivityRepository(pool),
		rotations:  postgres.NewRotationRepository(pool),
		pinger:     usecase.PingFunc(pool.Ping),
		close:      pool.Close,
	}, nil
}

func redisPinger(rdb *redis.Client) usecase.Pinger {
	return usecase.PingFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}

func drainNATS(nc *nats.Conn, log *logger.Logger) {
	if err := nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("drenar conexión NATS")
	}
}
