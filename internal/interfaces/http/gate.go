package http

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/auth"
	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// Cabeceras del contexto de confianza. Las que llegan del cliente se descartan siempre.
const (
	HeaderTenantID     = "X-Tenant-Id"
	HeaderUserID       = "X-User-Id"
	HeaderUserRole     = "X-User-Role"
	HeaderSessionToken = "X-Session-Token"
)

// Locals keys del contexto de confianza en Fiber.
const (
	LocalTenantID  = "tenant_id"
	LocalUserID    = "user_id"
	LocalRole      = "role"
	LocalPrincipal = "principal"
)

// RouteClass clase de una ruta para la puerta de autorización.
type RouteClass int

const (
	ClassPassthrough RouteClass = iota
	ClassPublic
	ClassTenant
	ClassPlatform
)

func (rc RouteClass) String() string {
	switch rc {
	case ClassPublic:
		return "public"
	case ClassTenant:
		return "tenant"
	case ClassPlatform:
		return "platform"
	}
	return "passthrough"
}

var publicPrefixes = []string{"/health", "/api/health", "/metrics", "/docs", "/api/leads", "/api/auth"}

// Classify clasifica la ruta solo por prefijo de path. Compara sobre el path
// normalizado (minúsculas, sin "//", "." ni ".."), así que una variante de
// mayúsculas nunca queda como passthrough.
func Classify(p string) RouteClass {
	p = normalizePath(p)
	switch {
	case hasSegmentPrefix(p, "/api/client"), hasSegmentPrefix(p, "/client"):
		return ClassTenant
	case hasSegmentPrefix(p, "/api/admin"):
		return ClassPlatform
	}
	for _, prefix := range publicPrefixes {
		if hasSegmentPrefix(p, prefix) {
			return ClassPublic
		}
	}
	return ClassPassthrough
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + strings.ToLower(p))
}

// isAPIPath las rutas bajo /api responden JSON; el resto son páginas del portal.
func isAPIPath(p string) bool {
	return hasSegmentPrefix(normalizePath(p), "/api")
}

// hasSegmentPrefix "/client" cubre "/client" y "/client/..." pero no "/clientes".
func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// SessionResolver valida un token de sesión y devuelve la identidad verificada.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Resolved, error)
}

// GateConfig configuración de la puerta.
type GateConfig struct {
	CookieName   string
	CookieSecure bool
	LoginPath    string
}

// Gate puerta de autorización: clasifica cada petición y, para las rutas con sesión,
// establece el contexto de confianza antes de cualquier handler.
type Gate struct {
	sessions SessionResolver
	cfg      GateConfig
	log      *logger.Logger
	metrics  *Metrics
}

// NewGate construye la puerta.
func NewGate(sessions SessionResolver, cfg GateConfig, log *logger.Logger) *Gate {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{sessions: sessions, cfg: cfg, log: log.Component("gate")}
}

// WithMetrics cuenta las decisiones de la puerta.
func (g *Gate) WithMetrics(m *Metrics) *Gate {
	g.metrics = m
	return g
}

// Handler middleware global. Debe registrarse antes que cualquier ruta.
func (g *Gate) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stripTrustHeaders(c)
		switch Classify(c.Path()) {
		case ClassTenant:
			return g.tenant(c)
		case ClassPlatform:
			return g.platform(c)
		}
		return c.Next()
	}
}

func (g *Gate) tenant(c *fiber.Ctx) error {
	res, err := g.resolve(c)
	if err != nil {
		return g.deny(c, ClassTenant, err)
	}
	p := res.Principal
	if p.TenantID == "" {
		g.metrics.gate(ClassTenant, "denied")
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    CodeNoTenant,
			Message: "el usuario no tiene agencia asociada",
		})
	}
	g.refresh(c, res)
	setTrust(c, &p)
	g.metrics.gate(ClassTenant, "authorized")
	return c.Next()
}

func (g *Gate) platform(c *fiber.Ctx) error {
	res, err := g.resolve(c)
	if err != nil {
		return g.deny(c, ClassPlatform, err)
	}
	p := res.Principal
	if p.Role != entity.RoleAdmin || !p.IsPlatformAdmin() {
		g.metrics.gate(ClassPlatform, "denied")
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    CodeForbidden,
			Message: "se requiere administrador de plataforma",
		})
	}
	g.refresh(c, res)
	setTrust(c, &p)
	g.metrics.gate(ClassPlatform, "authorized")
	return c.Next()
}

func (g *Gate) resolve(c *fiber.Ctx) (*auth.Resolved, error) {
	token := sessionToken(c, g.cfg.CookieName)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	return g.sessions.Resolve(c.UserContext(), token)
}

// deny sin sesión: 401 en la API y redirección al login en el portal. Si el almacén de
// usuarios no responde se niega igualmente (503 en la API).
func (g *Gate) deny(c *fiber.Ctx, class RouteClass, err error) error {
	unavailable := errors.Is(err, auth.ErrStoreUnavailable)
	if unavailable {
		g.metrics.gate(class, "unavailable")
		g.log.Error().Err(err).Str("request_id", requestID(c)).Str("path", c.Path()).
			Msg("no se pudo resolver la sesión; acceso denegado")
	}
	if !isAPIPath(c.Path()) {
		if !unavailable {
			g.metrics.gate(class, "redirected")
		}
		return c.Redirect(g.cfg.LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	if unavailable {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code:    CodeAuthUnavailable,
			Message: "no se pudo verificar la sesión, intenta de nuevo",
		})
	}
	g.metrics.gate(class, "denied")
	if !errors.Is(err, domain.ErrUnauthorized) {
		g.log.Warn().Err(err).Str("path", c.Path()).Msg("sesión rechazada")
	}
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Code:    CodeUnauthorized,
		Message: "sesión requerida",
	})
}

// refresh adjunta el token reemitido si el actual estaba por expirar.
func (g *Gate) refresh(c *fiber.Ctx, res *auth.Resolved) {
	if res.RefreshedToken == "" {
		return
	}
	setSessionCookie(c, g.cfg, res.RefreshedToken, res.RefreshedExpires)
	c.Set(HeaderSessionToken, res.RefreshedToken)
}

func setSessionCookie(c *fiber.Ctx, cfg GateConfig, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx, cfg GateConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// sessionToken cookie de sesión o, en su defecto, Authorization: Bearer.
func sessionToken(c *fiber.Ctx, cookieName string) string {
	if tok := strings.TrimSpace(c.Cookies(cookieName)); tok != "" {
		return tok
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func stripTrustHeaders(c *fiber.Ctx) {
	h := &c.Request().Header
	h.Del(HeaderTenantID)
	h.Del(HeaderUserID)
	h.Del(HeaderUserRole)
}

func setTrust(c *fiber.Ctx, p *auth.Principal) {
	h := &c.Request().Header
	h.Set(HeaderTenantID, p.TenantID)
	h.Set(HeaderUserID, p.UserID)
	h.Set(HeaderUserRole, p.Role)
	c.Locals(LocalTenantID, p.TenantID)
	c.Locals(LocalUserID, p.UserID)
	c.Locals(LocalRole, p.Role)
	c.Locals(LocalPrincipal, p)
}

// GetTenantID agencia verificada por la puerta ("" fuera de rutas con sesión).
func GetTenantID(c *fiber.Ctx) string {
	return localString(c, LocalTenantID)
}

// GetUserID usuario verificado por la puerta.
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetRole rol verificado por la puerta.
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

// GetPrincipal identidad completa verificada por la puerta.
func GetPrincipal(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(LocalPrincipal).(*auth.Principal)
	return p
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// trustedActor contexto de confianza para los casos de uso; false si falta la agencia.
func trustedActor(c *fiber.Ctx) (usecase.Actor, bool) {
	a := usecase.Actor{TenantID: GetTenantID(c), UserID: GetUserID(c)}
	return a, a.TenantID != ""
}

func missingTrust(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    CodeNoTenant,
		Message: "falta el contexto de agencia",
	})
}
