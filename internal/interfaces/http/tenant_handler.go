package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
)

// TenantHandler registro y consulta de tenants, más la administración de códigos (superadmin).
type TenantHandler struct {
	registrar *tenant.Registrar
	backfill  *tenant.Backfill
	allocator *sequence.Allocator
}

// NewTenantHandler construye el handler.
func NewTenantHandler(registrar *tenant.Registrar, backfill *tenant.Backfill, allocator *sequence.Allocator) *TenantHandler {
	return &TenantHandler{registrar: registrar, backfill: backfill, allocator: allocator}
}

// Create godoc
// @Summary      Registrar tenant
// @Description  Asigna el siguiente código de la categoría (ej. Casa_07) en la misma transacción del alta.
// @Tags         tenants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTenantRequest  true  "name, category, document, email, code opcional"
// @Success      201   {object}  dto.TenantResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tenants [post]
func (h *TenantHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTenantRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	t, err := h.registrar.Register(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tenant.ToResponse(t))
}

// GetByID godoc
// @Summary      Obtener tenant por ID
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {object}  dto.TenantResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenants/{id} [get]
func (h *TenantHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.registrar.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tenant.ToResponse(t))
}

// List tenants más antiguos primero.
func (h *TenantHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	list, err := h.registrar.List(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.TenantListResponse{Items: make([]dto.TenantResponse, 0, len(list)), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	for _, t := range list {
		out.Items = append(out.Items, tenant.ToResponse(t))
	}
	return c.JSON(out)
}

// Sequences estado de los contadores por categoría.
func (h *TenantHandler) Sequences(c *fiber.Ctx) error {
	list, err := h.allocator.Counters(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SequenceCounterResponse, 0, len(list))
	for _, sc := range list {
		out = append(out, dto.SequenceCounterResponse{Category: sc.Category, LastNumber: sc.LastNumber, UpdatedAt: sc.UpdatedAt})
	}
	return c.JSON(out)
}

// BackfillCodes godoc
// @Summary      Asignar códigos a tenants legados
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        dry_run  query  bool  false  "Solo reportar, sin escribir"
// @Param        limit    query  int   false  "Máximo de tenants a procesar (0 = todos)"
// @Success      200  {object}  dto.BackfillReport
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/admin/tenants/backfill-codes [post]
func (h *TenantHandler) BackfillCodes(c *fiber.Ctx) error {
	opts := tenant.BackfillOptions{
		DryRun: c.QueryBool("dry_run", false),
		Limit:  c.QueryInt("limit", 0),
	}
	if opts.Limit < 0 {
		return badRequest(c, "VALIDATION", "limit no puede ser negativo")
	}
	report, err := h.backfill.Run(c.UserContext(), opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	return page
}
