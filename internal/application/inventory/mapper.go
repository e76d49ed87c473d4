package inventory

import (
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// ItemToResponse convierte la entidad al DTO de salida.
func ItemToResponse(i *entity.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:              i.ID,
		Name:            i.Name,
		Description:     i.Description,
		Kind:            i.Kind,
		Category:        i.Category,
		Unit:            i.Unit,
		Quantity:        i.Quantity,
		MinimumQuantity: i.MinimumQuantity,
		UnitPrice:       i.UnitPrice,
		Location:        i.Location,
		Lot:             i.Lot,
		ExpiresAt:       i.ExpiresAt,
		Active:          i.Active,
		BelowMinimum:    i.BelowMinimum(),
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// ItemsToResponse convierte una lista; nunca devuelve nil.
func ItemsToResponse(list []*entity.StockItem) []dto.StockItemResponse {
	out := make([]dto.StockItemResponse, 0, len(list))
	for _, i := range list {
		out = append(out, ItemToResponse(i))
	}
	return out
}

// MovementToResponse convierte la entidad al DTO de salida.
func MovementToResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		ItemID:          m.ItemID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		Reason:          m.Reason,
		Note:            m.Note,
		ActorID:         m.ActorID,
		ActorName:       m.ActorName,
		CreatedAt:       m.CreatedAt,
	}
}

// MovementsToResponse convierte una lista; nunca devuelve nil.
func MovementsToResponse(list []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementToResponse(m))
	}
	return out
}
