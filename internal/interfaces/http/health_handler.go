package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
)

// HealthHandler estado del servicio y sus dependencias.
type HealthHandler struct {
	uc *usecase.HealthUseCase
}

// NewHealthHandler construye el handler.
func NewHealthHandler(uc *usecase.HealthUseCase) *HealthHandler {
	return &HealthHandler{uc: uc}
}

// Check godoc
// @Summary      Estado del servicio
// @Description  200 si todas las dependencias habilitadas responden, 503 si no.
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	out := h.uc.Check(c.UserContext())
	status := fiber.StatusOK
	if out.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(out)
}

// Probe godoc
// @Summary      Sonda ligera (solo la base de datos)
// @Tags         health
// @Success      200
// @Failure      503
// @Router       /health [head]
func (h *HealthHandler) Probe(c *fiber.Ctx) error {
	if !h.uc.Live(c.UserContext()) {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}
	return c.SendStatus(fiber.StatusOK)
}
