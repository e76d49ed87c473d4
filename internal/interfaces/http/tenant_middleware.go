package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// tenantLookup contrato mínimo para verificar el tenant del token.
// Lo implementa *tenant.Registrar.
type tenantLookup interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
}

// RequireActiveTenant verifica que el tenant del token exista y esté activo.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalTenantID).
//   - 401 si no hay tenant_id en el token.
//   - 403 TENANT_INACTIVE si está suspendido o inactivo (o ya no existe).
//   - 503 si falla la consulta.
func RequireActiveTenant(lookup tenantLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID := GetTenantID(c)
		if tenantID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "tenant_id no encontrado en el token",
			})
		}

		t, err := lookup.GetByID(c.UserContext(), tenantID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "TENANT_CHECK_FAILED",
				Message: "no se pudo verificar el tenant, intente más tarde",
			})
		}
		if t == nil || t.Status != entity.TenantStatusActive {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "TENANT_INACTIVE",
				Message: "el tenant no está activo",
			})
		}
		return c.Next()
	}
}
