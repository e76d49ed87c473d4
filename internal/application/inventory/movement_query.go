package inventory

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// MovementQueryUseCase lectura del historial de movimientos. No escribe.
type MovementQueryUseCase struct {
	movements repository.StockMovementRepository
}

// NewMovementQueryUseCase construye el caso de uso.
func NewMovementQueryUseCase(movements repository.StockMovementRepository) *MovementQueryUseCase {
	return &MovementQueryUseCase{movements: movements}
}

// List movimientos del tenant filtrados, más recientes primero, con el total.
func (uc *MovementQueryUseCase) List(ctx context.Context, filter repository.MovementFilter, page dto.PageRequest) ([]*entity.StockMovement, int, error) {
	if err := validateFilter(filter); err != nil {
		return nil, 0, err
	}
	page.DefaultPage()
	list, err := uc.movements.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.movements.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetByID obtiene un movimiento del tenant o domain.ErrNotFound.
func (uc *MovementQueryUseCase) GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	m, err := uc.movements.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// Summary totales por ítem (entradas, salidas, ajuste neto) dentro del filtro.
func (uc *MovementQueryUseCase) Summary(ctx context.Context, filter repository.MovementFilter) ([]dto.MovementSummaryDTO, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	rows, err := uc.movements.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementSummaryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.MovementSummaryDTO{
			ItemID:        r.ItemID,
			ItemName:      r.ItemName,
			Entries:       r.Entries,
			Exits:         r.Exits,
			AdjustmentNet: r.AdjustmentNet,
			Count:         r.Count,
		})
	}
	return out, nil
}

func validateFilter(f repository.MovementFilter) error {
	if f.TenantID == "" {
		return domain.Invalid("tenant requerido")
	}
	if f.Type != "" && !entity.ValidMovementType(f.Type) {
		return domain.Invalid("tipo de movimiento inválido %q", f.Type)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return domain.Invalid("rango de fechas inválido")
	}
	return nil
}
