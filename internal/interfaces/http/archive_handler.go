package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
)

// ArchiveHandler exportación del libro del tenant al almacén de objetos (admin).
type ArchiveHandler struct {
	exporter *archive.Exporter
}

// NewArchiveHandler construye el handler.
func NewArchiveHandler(exporter *archive.Exporter) *ArchiveHandler {
	return &ArchiveHandler{exporter: exporter}
}

// Export godoc
// @Summary      Archivar el libro de stock del tenant
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.ArchiveResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/archive [post]
func (h *ArchiveHandler) Export(c *fiber.Ctx) error {
	info, doc, err := h.exporter.Export(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ArchiveResponse{
		Key:       info.Key,
		Items:     len(doc.Items),
		Movements: len(doc.Movements),
		CreatedAt: doc.GeneratedAt,
	})
}

// List archivos ya generados para el tenant.
func (h *ArchiveHandler) List(c *fiber.Ctx) error {
	list, err := h.exporter.List(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ArchiveObjectDTO, 0, len(list))
	for _, b := range list {
		out = append(out, dto.ArchiveObjectDTO{Key: b.Key, Size: b.Size, LastModified: b.LastModified})
	}
	return c.JSON(out)
}
