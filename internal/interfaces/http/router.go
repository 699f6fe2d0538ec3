package http

import (
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/agencia-leads-api/internal/application/auth"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	LeadUC     *usecase.LeadUseCase
	IntakeUC   *usecase.IntakeUseCase
	ImportUC   *usecase.ImportUseCase
	ExportUC   *usecase.ExportUseCase
	RotationUC *usecase.RotationUseCase
	TenantUC   *usecase.TenantUseCase
	HealthUC   *usecase.HealthUseCase
	Limiter    ports.RateLimiter
	Metrics    *Metrics
	Session    GateConfig
	Log        *logger.Logger
}

// AppConfig opciones del servidor Fiber.
type AppConfig struct {
	Name        string
	SwaggerFile string // vacío: sin /docs
	BodyLimit   int
}

// NewApp crea la aplicación con el stack de middlewares y todas las rutas.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 6 << 20
	}
	app := fiber.New(fiber.Config{
		AppName: cfg.Name,
		// La puerta clasifica por prefijo: "/API/admin" no puede llegar a "/api/admin".
		CaseSensitive: true,
		ReadTimeout:   time.Second * 10,
		WriteTimeout:  time.Second * 30,
		IdleTimeout:   time.Second * 60,
		BodyLimit:     cfg.BodyLimit,
		ErrorHandler:  ErrorHandler(deps.Log),
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: LocalRequestID}))
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
	}
	app.Use(RequestLogger(deps.Log))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.SwaggerFile,
			Path:     "docs",
			Title:    cfg.Name,
		}))
	}
	Router(app, deps)
	return app
}

// Router registra la puerta de autorización y las rutas.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	// La puerta va antes de cualquier ruta: limpia las cabeceras de confianza en todas las
	// peticiones y corta las rutas de agencia y plataforma sin sesión válida.
	app.Use(NewGate(deps.AuthUC, deps.Session, log).WithMetrics(deps.Metrics).Handler())

	// Health (público). HEAD antes que GET: Fiber registra HEAD junto con cada GET.
	healthHandler := NewHealthHandler(deps.HealthUC)
	for _, p := range []string{"/health", "/api/health"} {
		app.Head(p, healthHandler.Probe)
		app.Get(p, healthHandler.Check)
	}
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Session, log)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)

	// Formularios del sitio público
	// Ambos comparten la cuota "intake" por IP.
	publicHandler := NewPublicLeadHandler(deps.IntakeUC, deps.LeadUC, log)
	public := func(h fiber.Handler) []fiber.Handler {
		if deps.Limiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{RateLimit(deps.Limiter, "intake", deps.Metrics, log), h}
	}
	api.Post("/leads", public(publicHandler.Submit)...)
	api.Post("/leads/qualify", public(publicHandler.Qualify)...)

	// Portal de la agencia (páginas)
	app.Get("/client", authHandler.Portal)
	app.Get("/client/*", authHandler.Portal)

	// API de la agencia
	client := api.Group("/client")
	client.Get("/me", authHandler.Me)

	leadHandler := NewLeadHandler(deps.LeadUC, deps.ImportUC, deps.ExportUC, log)
	leads := client.Group("/leads")
	leads.Get("/", leadHandler.List)
	leads.Post("/", leadHandler.Create)
	leads.Patch("/", leadHandler.UpdateByBody)
	leads.Get("/stats", leadHandler.Stats)
	leads.Get("/export", leadHandler.Export)
	leads.Post("/import", leadHandler.Import)
	leads.Put("/import", leadHandler.PreviewCSV)
	leads.Get("/:id", leadHandler.Get)
	leads.Patch("/:id", leadHandler.Update)
	leads.Patch("/:id/priority", leadHandler.UpdatePriority)
	leads.Patch("/:id/assign", leadHandler.Assign)
	leads.Post("/:id/qualify", leadHandler.Qualify)
	leads.Get("/:id/activities", leadHandler.ListActivities)
	leads.Post("/:id/activities", leadHandler.AddActivity)

	rotationHandler := NewRotationHandler(deps.RotationUC, log)
	team := client.Group("/team")
	team.Get("/", rotationHandler.Team)
	team.Get("/rotation", rotationHandler.List)
	team.Post("/rotation", rotationHandler.Create)
	team.Put("/rotation", rotationHandler.Schedule)
	team.Patch("/rotation/:id", rotationHandler.Update)

	// Plataforma (administrador sin agencia)
	adminHandler := NewAdminHandler(deps.LeadUC, deps.TenantUC, log)
	admin := api.Group("/admin")
	admin.Get("/leads", adminHandler.ListLeads)
	admin.Get("/leads/stats", adminHandler.Stats)
	admin.Get("/tenants", adminHandler.Tenants)
}
