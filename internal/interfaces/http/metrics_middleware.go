package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/observability"
)

// MetricsMiddleware registra latencia y conteo por ruta (patrón, no URL concreta).
func MetricsMiddleware() fiber.Handler {
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
		labels := []string{c.Method(), c.Route().Path, strconv.Itoa(status)}
		observability.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		observability.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		return err
	}
}
