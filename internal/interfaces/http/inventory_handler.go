package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// InventoryHandler ítems de stock, libro de movimientos y su consulta (protegido, por tenant).
type InventoryHandler struct {
	items  *inventory.ItemUseCase
	ledger *inventory.RegisterMovementUseCase
	query  *inventory.MovementQueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(items *inventory.ItemUseCase, ledger *inventory.RegisterMovementUseCase, query *inventory.MovementQueryUseCase) *InventoryHandler {
	return &InventoryHandler{items: items, ledger: ledger, query: query}
}

// CreateItem godoc
// @Summary      Crear ítem de stock
// @Description  initial_quantity > 0 se registra como entrada "saldo inicial" en el libro.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockItemRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	item, err := h.items.Create(c.UserContext(), GetTenantID(c), GetUserID(c), GetUserName(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ItemToResponse(item))
}

// GetItem godoc
// @Summary      Obtener ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [get]
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.items.GetByID(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ItemToResponse(item))
}

// ListItems filtros: kind, category, search, active.
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.StockItemFilter{
		TenantID:   GetTenantID(c),
		Kind:       c.Query("kind"),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		OnlyActive: c.QueryBool("active", false),
	}
	list, total, err := h.items.List(c.UserContext(), filter, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockItemListResponse{
		Items: inventory.ItemsToResponse(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// UpdateItem godoc
// @Summary      Actualizar datos descriptivos del ítem
// @Description  La cantidad no se edita aquí; use movimientos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del ítem"
// @Param        body  body  dto.UpdateStockItemRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id} [put]
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	item, err := h.items.UpdateAttributes(c.UserContext(), GetTenantID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ItemToResponse(item))
}

// Reconcile compara el saldo guardado con el reconstruido desde el historial.
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.items.Reconcile(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Alerts ítems bajo mínimo y por vencer (expiring_days, 30 por defecto).
func (h *InventoryHandler) Alerts(c *fiber.Ctx) error {
	res, err := h.items.Alerts(c.UserContext(), GetTenantID(c), c.QueryInt("expiring_days", 30))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  entry/exit con cantidad positiva; adjustment con el saldo contado.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "item_id, type, quantity, reason, note"
// @Success      201   {object}  dto.RecordMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK (con available) o CONCURRENCY_CONFLICT"
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.RecordMovementFromRequest(c.UserContext(), GetTenantID(c), GetUserID(c), GetUserName(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordMovementResponse{
		Item:     inventory.ItemToResponse(res.Item),
		Movement: inventory.MovementToResponse(res.Movement),
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos (más recientes primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id  query  string  false  "Filtrar por ítem"
// @Param        type     query  string  false  "entry | exit | adjustment"
// @Param        from     query  string  false  "RFC3339"
// @Param        to       query  string  false  "RFC3339"
// @Param        limit    query  int     false  "Máximo 100"
// @Param        offset   query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	return h.listMovements(c, c.Query("item_id"))
}

// ItemMovements historial de un ítem.
func (h *InventoryHandler) ItemMovements(c *fiber.Ctx) error {
	return h.listMovements(c, c.Params("id"))
}

func (h *InventoryHandler) listMovements(c *fiber.Ctx, itemID string) error {
	filter, err := movementFilter(c, itemID)
	if err != nil {
		return writeError(c, err)
	}
	page := pageFromQuery(c)
	list, total, err := h.query.List(c.UserContext(), filter, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: inventory.MovementsToResponse(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetMovement un movimiento del tenant.
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	m, err := h.query.GetByID(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.MovementToResponse(m))
}

// MovementSummary totales por ítem dentro del filtro.
func (h *InventoryHandler) MovementSummary(c *fiber.Ctx) error {
	filter, err := movementFilter(c, c.Query("item_id"))
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.query.Summary(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

func movementFilter(c *fiber.Ctx, itemID string) (repository.MovementFilter, error) {
	f := repository.MovementFilter{TenantID: GetTenantID(c), ItemID: itemID, Type: c.Query("type")}
	var err error
	if f.From, err = queryTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return f, err
	}
	return f, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.Invalid("%s debe ser RFC3339", key)
	}
	t = t.UTC()
	return &t, nil
}
