package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// RotationHandler equipo de la agencia y rotaciones de agentes.
type RotationHandler struct {
	uc  *usecase.RotationUseCase
	log *logger.Logger
}

// NewRotationHandler construye el handler.
func NewRotationHandler(uc *usecase.RotationUseCase, log *logger.Logger) *RotationHandler {
	return &RotationHandler{uc: uc, log: log}
}

// Team godoc
// @Summary      Equipo de la agencia
// @Tags         team
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.TeamMemberResponse
// @Router       /api/client/team [get]
func (h *RotationHandler) Team(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	out, err := h.uc.Team(c.UserContext(), actor.TenantID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar rotaciones con estadísticas
// @Tags         team
// @Security     Bearer
// @Produce      json
// @Param        type     query  string  false  "Tipo de rotación"
// @Param        user_id  query  string  false  "Agente"
// @Param        active   query  string  false  "true o false"
// @Success      200  {object}  dto.RotationListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/client/team/rotation [get]
func (h *RotationHandler) List(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.RotationListRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	out, err := h.uc.List(c.UserContext(), actor.TenantID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear rotación
// @Description  Rechaza con 409 si se solapa con otra rotación activa del mismo tipo y agente.
// @Tags         team
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRotationRequest  true  "Rotación"
// @Success      201   {object}  dto.RotationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/client/team/rotation [post]
func (h *RotationHandler) Create(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.CreateRotationRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.uc.Create(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Activar, desactivar o extender una rotación
// @Tags         team
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la rotación"
// @Param        body  body  dto.UpdateRotationRequest  true  "Cambios"
// @Success      200   {object}  dto.RotationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/client/team/rotation/{id} [patch]
func (h *RotationHandler) Update(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.UpdateRotationRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Schedule godoc
// @Summary      Proponer calendario de rotaciones
// @Description  Planificación sin escrituras para todos los agentes de la agencia.
// @Tags         team
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScheduleRequest  true  "Tipo de rotación"
// @Success      200   {object}  dto.ScheduleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/client/team/rotation [put]
func (h *RotationHandler) Schedule(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.ScheduleRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.uc.Schedule(c.UserContext(), actor.TenantID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
