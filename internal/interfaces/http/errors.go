package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// Códigos de error de la API.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNoTenant        = "NO_TENANT"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeDuplicate       = "DUPLICATE"
	CodeOverlap         = "ROTATION_OVERLAP"
	CodeTransition      = "INVALID_TRANSITION"
	CodeRateLimited     = "RATE_LIMITED"
	CodeAuthUnavailable = "AUTH_UNAVAILABLE"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternal        = "INTERNAL_ERROR"
)

// apiError traduce un error de dominio a status + cuerpo.
func apiError(err error) (int, dto.ErrorResponse) {
	if ve, ok := domain.AsValidation(err); ok {
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeValidation, Message: "datos inválidos", Details: ve.Fields}
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: CodeUnauthorized, Message: "sesión inválida o expirada"}
	case errors.Is(err, domain.ErrNoTenant):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: CodeNoTenant, Message: domain.ErrNoTenant.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: CodeForbidden, Message: domain.ErrForbidden.Error()}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: CodeNotFound, Message: domain.ErrNotFound.Error()}
	case errors.Is(err, domain.ErrRotationOverlap):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeOverlap, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeTransition, Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeDuplicate, Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests, dto.ErrorResponse{Code: CodeRateLimited, Message: domain.ErrRateLimited.Error()}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: CodeInternal, Message: "error interno del servidor"}
}

// respondError escribe el error en el formato de la API. Los 500 se registran con el detalle
// y se responden con un mensaje genérico.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := apiError(err)
	if status >= fiber.StatusInternalServerError && log != nil {
		log.Error().Err(err).
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error no controlado")
	}
	return c.Status(status).JSON(body)
}

// badRequest cuerpo o query imposible de interpretar.
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeBadRequest, Message: msg})
}

// ErrorHandler manejador global de Fiber: rutas inexistentes, métodos no permitidos y
// errores devueltos sin pasar por respondError.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := CodeBadRequest
			switch fe.Code {
			case fiber.StatusNotFound:
				code = CodeNotFound
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			case fiber.StatusRequestEntityTooLarge:
				code = "PAYLOAD_TOO_LARGE"
			}
			if fe.Code >= fiber.StatusInternalServerError {
				code = CodeInternal
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
		}
		return respondError(c, log, err)
	}
}
