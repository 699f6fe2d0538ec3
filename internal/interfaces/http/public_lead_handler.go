package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// PublicLeadHandler formularios del sitio público: captura y calificación.
type PublicLeadHandler struct {
	intake *usecase.IntakeUseCase
	leads  *usecase.LeadUseCase
	log    *logger.Logger
}

// NewPublicLeadHandler construye el handler.
func NewPublicLeadHandler(intake *usecase.IntakeUseCase, leads *usecase.LeadUseCase, log *logger.Logger) *PublicLeadHandler {
	return &PublicLeadHandler{intake: intake, leads: leads, log: log}
}

// Submit godoc
// @Summary      Enviar formulario de contacto
// @Description  Crea el lead en la agencia por defecto. Un email ya registrado añade el mensaje al lead existente. Responde éxito aunque fallen las notificaciones.
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PublicLeadRequest  true  "Datos del formulario"
// @Success      200   {object}  dto.PublicLeadResponse
// @Failure      400   {object}  dto.FormErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/leads [post]
func (h *PublicLeadHandler) Submit(c *fiber.Ctx) error {
	var in dto.PublicLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return formError(c, "body", "cuerpo inválido")
	}
	out, err := h.intake.Submit(c.UserContext(), in, usecase.IntakeMeta{
		Referrer:  c.Get(fiber.HeaderReferer),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IP:        c.IP(),
		RequestID: requestID(c),
	})
	if err != nil {
		return h.formFailure(c, err)
	}
	return c.JSON(out)
}

// Qualify godoc
// @Summary      Calificar lead desde el formulario de seguimiento
// @Description  Sin sesión: la respuesta solo incluye leadId, estado y fecha de calificación.
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        body  body  dto.QualifyRequest  true  "leadId y qualificationData"
// @Success      200   {object}  dto.QualifyResponse
// @Failure      400   {object}  dto.FormErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/leads/qualify [post]
func (h *PublicLeadHandler) Qualify(c *fiber.Ctx) error {
	var in dto.QualifyRequest
	if err := c.BodyParser(&in); err != nil {
		return formError(c, "body", "cuerpo inválido")
	}
	out, err := h.leads.QualifyPublic(c.UserContext(), in)
	if err != nil {
		return h.formFailure(c, err)
	}
	return c.JSON(dto.QualifyResponse{
		Success: true,
		Message: "Lead calificado",
		Data:    &dto.PublicQualifyData{LeadID: out.ID, Status: out.Status, QualifiedAt: out.QualifiedAt},
	})
}

// formFailure los errores de validación van en el formato de formulario; el resto, como en la API.
func (h *PublicLeadHandler) formFailure(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidation(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.FormErrorResponse{Success: false, Errors: ve.Fields})
	}
	return respondError(c, h.log, err)
}

func formError(c *fiber.Ctx, field, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.FormErrorResponse{
		Success: false,
		Errors:  map[string][]string{field: {msg}},
	})
}
