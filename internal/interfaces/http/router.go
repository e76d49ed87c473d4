package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registrar     *tenant.Registrar
	Backfill      *tenant.Backfill
	Allocator     *sequence.Allocator
	Items         *inventory.ItemUseCase
	Ledger        *inventory.RegisterMovementUseCase
	MovementQuery *inventory.MovementQueryUseCase
	Exporter      *archive.Exporter // nil = sin archivo
	JWTSecret     string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Tenants y administración de códigos (superadmin)
	tenantHandler := NewTenantHandler(deps.Registrar, deps.Backfill, deps.Allocator)
	tenants := api.Group("/tenants", RequireRole(jwt.RoleSuperAdmin))
	tenants.Post("/", tenantHandler.Create)
	tenants.Get("/", tenantHandler.List)
	tenants.Get("/:id", tenantHandler.GetByID)

	admin := api.Group("/admin", RequireRole(jwt.RoleSuperAdmin))
	admin.Get("/sequences", tenantHandler.Sequences)
	admin.Post("/tenants/backfill-codes", tenantHandler.BackfillCodes)

	// Inventario del tenant del token
	inv := api.Group("/inventory", RequireRole(jwt.RoleAdmin, jwt.RoleStaff), RequireActiveTenant(deps.Registrar))
	inventoryHandler := NewInventoryHandler(deps.Items, deps.Ledger, deps.MovementQuery)
	inv.Post("/items", inventoryHandler.CreateItem)
	inv.Get("/items", inventoryHandler.ListItems)
	inv.Get("/items/:id", inventoryHandler.GetItem)
	inv.Put("/items/:id", inventoryHandler.UpdateItem)
	inv.Get("/items/:id/reconcile", inventoryHandler.Reconcile)
	inv.Get("/items/:id/movements", inventoryHandler.ItemMovements)
	inv.Get("/alerts", inventoryHandler.Alerts)
	inv.Post("/movements", inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/movements/summary", inventoryHandler.MovementSummary)
	inv.Get("/movements/:id", inventoryHandler.GetMovement)

	if deps.Exporter != nil {
		archiveHandler := NewArchiveHandler(deps.Exporter)
		inv.Post("/archive", RequireRole(jwt.RoleAdmin), archiveHandler.Export)
		inv.Get("/archive", RequireRole(jwt.RoleAdmin), archiveHandler.List)
	}
}
