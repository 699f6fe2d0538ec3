package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// AdminHandler vistas de plataforma (administrador sin agencia). Cada handler
// vuelve a exigir el principal de plataforma aunque la puerta ya lo haya hecho.
type AdminHandler struct {
	leads   *usecase.LeadUseCase
	tenants *usecase.TenantUseCase
	log     *logger.Logger
}

// NewAdminHandler construye el handler.
func NewAdminHandler(leads *usecase.LeadUseCase, tenants *usecase.TenantUseCase, log *logger.Logger) *AdminHandler {
	return &AdminHandler{leads: leads, tenants: tenants, log: log}
}

// ListLeads godoc
// @Summary      Leads de todas las agencias
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  false  "Filtrar por agencia"
// @Param        status     query  string  false  "Estado"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LeadListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/leads [get]
func (h *AdminHandler) ListLeads(c *fiber.Ctx) error {
	if err := requirePlatform(c); err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.LeadListRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	out, err := h.leads.ListAll(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Métricas globales del pipeline
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LeadStatsResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/leads/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	if err := requirePlatform(c); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.leads.Stats(c.UserContext(), nil)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Tenants godoc
// @Summary      Listar agencias
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.TenantListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/tenants [get]
func (h *AdminHandler) Tenants(c *fiber.Ctx) error {
	if err := requirePlatform(c); err != nil {
		return respondError(c, h.log, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	out, err := h.tenants.List(c.UserContext(), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// requirePlatform sin principal de plataforma en Locals no se sirve nada.
func requirePlatform(c *fiber.Ctx) error {
	p := GetPrincipal(c)
	if p == nil || p.Role != entity.RoleAdmin || !p.IsPlatformAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
