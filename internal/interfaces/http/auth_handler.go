package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/auth"
	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/validation"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// AuthHandler login, logout y contexto de la sesión.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	cfg GateConfig
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, cfg GateConfig, log *logger.Logger) *AuthHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	return &AuthHandler{uc: uc, cfg: cfg, log: log}
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Emite el token de sesión (también como cookie HttpOnly).
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password, domain opcional"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	setSessionCookie(c, h.cfg, out.Token, out.ExpiresAt)
	return c.JSON(out)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Description  Borra la cookie de sesión. Los tokens Bearer caducan por sí solos.
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearSessionCookie(c, h.cfg)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me godoc
// @Summary      Contexto de la sesión
// @Tags         client
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/client/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p := GetPrincipal(c)
	if p == nil {
		return missingTrust(c)
	}
	out, err := h.uc.Me(c.UserContext(), *p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Portal shell del portal de la agencia. La interfaz no forma parte de la API: devuelve el
// contexto de confianza que verían las páginas.
func (h *AuthHandler) Portal(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"client_id": GetTenantID(c),
		"user_id":   GetUserID(c),
		"role":      GetRole(c),
		"path":      c.Path(),
	})
}
