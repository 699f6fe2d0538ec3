package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// LocalRequestID clave en Locals del middleware requestid de Fiber.
const LocalRequestID = "requestid"

func requestID(c *fiber.Ctx) string {
	return localString(c, LocalRequestID)
}

// RequestLogger registra cada petición con su request id y latencia.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("client_id", GetTenantID(c)).
			Msg("petición")
		return err
	}
}

// RateLimit limita por IP. Si el limitador falla la petición continúa (se registra el error):
// el formulario público no debe caerse por Redis.
func RateLimit(limiter ports.RateLimiter, keyPrefix string, metrics *Metrics, log *logger.Logger) fiber.Handler {
	log = log.Component("ratelimit")
	return func(c *fiber.Ctx) error {
		res, err := limiter.Allow(c.UserContext(), keyPrefix+":"+c.IP())
		if err != nil {
			log.Warn().Err(err).Str("request_id", requestID(c)).Msg("limitador no disponible; se permite la petición")
			return c.Next()
		}
		now := time.Now()
		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if !res.Allowed {
			metrics.limited()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(res.RetryAfter(now)))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    CodeRateLimited,
				Message: "demasiadas solicitudes, intenta más tarde",
				Details: fiber.Map{"retry_after": res.RetryAfter(now), "limit": res.Limit},
			})
		}
		return c.Next()
	}
}
