package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

const (
	defaultUnit          = "un"
	initialBalanceReason = "saldo inicial"
	maxNameLen           = 200
)

// ItemUseCase casos de uso del almacén de ítems. La cantidad solo cambia a través
// del libro de stock, incluso el saldo inicial.
type ItemUseCase struct {
	txRunner  TxRunner
	items     repository.StockItemRepository
	movements repository.StockMovementRepository
	ledger    *RegisterMovementUseCase
}

// NewItemUseCase construye el caso de uso. items y movements se usan para lecturas fuera de tx.
func NewItemUseCase(
	txRunner TxRunner,
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
	ledger *RegisterMovementUseCase,
) *ItemUseCase {
	return &ItemUseCase{txRunner: txRunner, items: items, movements: movements, ledger: ledger}
}

// Create registra un ítem. Si InitialQuantity > 0 se asienta como entrada "saldo inicial"
// en la misma transacción, de modo que saldo e historial coinciden desde el alta.
func (uc *ItemUseCase) Create(ctx context.Context, tenantID, actorID, actorName string, in dto.CreateStockItemRequest) (*entity.StockItem, error) {
	item, err := newItem(tenantID, in)
	if err != nil {
		return nil, err
	}
	if in.InitialQuantity.IsNegative() {
		return nil, domain.Invalid("initial_quantity no puede ser negativa")
	}
	if in.InitialQuantity.IsPositive() {
		if err := inventory.ValidateQuantity(in.InitialQuantity); err != nil {
			return nil, err
		}
	}

	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(items repository.StockItemRepository, movements repository.StockMovementRepository) error {
		if err := items.Create(ctx, item); err != nil {
			return err
		}
		if !in.InitialQuantity.IsPositive() {
			return nil
		}
		var err error
		result, err = uc.ledger.applyInTx(ctx, items, movements, item, MovementInputDTO{
			TenantID:  tenantID,
			ItemID:    item.ID,
			Type:      entity.MovementTypeEntry,
			Quantity:  in.InitialQuantity,
			Reason:    initialBalanceReason,
			ActorID:   actorID,
			ActorName: actorName,
		}, item.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		uc.ledger.afterCommit(ctx, result)
		return result.Item, nil
	}
	return item, nil
}

func newItem(tenantID string, in dto.CreateStockItemRequest) (*entity.StockItem, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.Invalid("tenant requerido")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return nil, domain.Invalid("nombre requerido (máximo %d caracteres)", maxNameLen)
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = entity.ItemKindOther
	}
	if !entity.ValidItemKind(kind) {
		return nil, domain.Invalid("tipo de ítem inválido %q", in.Kind)
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	if err := inventory.ValidateMinimum(in.MinimumQuantity); err != nil {
		return nil, err
	}
	if err := inventory.ValidateUnitPrice(in.UnitPrice); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &entity.StockItem{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		Kind:            kind,
		Category:        strings.TrimSpace(in.Category),
		Unit:            unit,
		Quantity:        decimal.Zero,
		MinimumQuantity: in.MinimumQuantity,
		UnitPrice:       in.UnitPrice,
		Location:        strings.TrimSpace(in.Location),
		Lot:             strings.TrimSpace(in.Lot),
		ExpiresAt:       in.ExpiresAt,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetByID obtiene un ítem del tenant o domain.ErrNotFound.
func (uc *ItemUseCase) GetByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	item, err := uc.items.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// List devuelve una página de ítems y el total que cumple el filtro.
func (uc *ItemUseCase) List(ctx context.Context, filter repository.StockItemFilter, page dto.PageRequest) ([]*entity.StockItem, int, error) {
	if filter.TenantID == "" {
		return nil, 0, domain.Invalid("tenant requerido")
	}
	page.DefaultPage()
	list, err := uc.items.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.items.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateAttributes modifica datos descriptivos bajo bloqueo de fila. Nunca toca quantity.
func (uc *ItemUseCase) UpdateAttributes(ctx context.Context, tenantID, id string, in dto.UpdateStockItemRequest) (*entity.StockItem, error) {
	var updated *entity.StockItem
	err := uc.txRunner.Run(ctx, func(items repository.StockItemRepository, _ repository.StockMovementRepository) error {
		item, err := items.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if err := applyAttributes(item, in); err != nil {
			return err
		}
		item.UpdatedAt = time.Now().UTC()
		if err := items.UpdateAttributes(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyAttributes(item *entity.StockItem, in dto.UpdateStockItemRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > maxNameLen {
			return domain.Invalid("nombre requerido (máximo %d caracteres)", maxNameLen)
		}
		item.Name = name
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.Kind != nil {
		kind := strings.ToLower(strings.TrimSpace(*in.Kind))
		if !entity.ValidItemKind(kind) {
			return domain.Invalid("tipo de ítem inválido %q", *in.Kind)
		}
		item.Kind = kind
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
	}
	if in.Unit != nil {
		if u := strings.TrimSpace(*in.Unit); u != "" {
			item.Unit = u
		}
	}
	if in.MinimumQuantity != nil {
		if err := inventory.ValidateMinimum(*in.MinimumQuantity); err != nil {
			return err
		}
		item.MinimumQuantity = *in.MinimumQuantity
	}
	if in.Location != nil {
		item.Location = strings.TrimSpace(*in.Location)
	}
	if in.Lot != nil {
		item.Lot = strings.TrimSpace(*in.Lot)
	}
	if in.ExpiresAt != nil {
		item.ExpiresAt = in.ExpiresAt
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
	return nil
}

// Alerts ítems en o bajo el mínimo y lotes que vencen dentro de expiringWithinDays.
func (uc *ItemUseCase) Alerts(ctx context.Context, tenantID string, expiringWithinDays int) (*dto.StockAlertsResponse, error) {
	if expiringWithinDays <= 0 {
		expiringWithinDays = 30
	}
	low, err := uc.items.ListBelowMinimum(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	expiring, err := uc.items.ListExpiring(ctx, tenantID, time.Now().UTC().AddDate(0, 0, expiringWithinDays))
	if err != nil {
		return nil, err
	}
	return &dto.StockAlertsResponse{
		LowStock: ItemsToResponse(low),
		Expiring: ItemsToResponse(expiring),
	}, nil
}

// Reconcile reconstruye el saldo del ítem plegando su historial en orden de confirmación
// y lo compara con el saldo vivo. Bloquea el ítem para leer ambos en un mismo estado.
func (uc *ItemUseCase) Reconcile(ctx context.Context, tenantID, id string) (*dto.ReconcileResponse, error) {
	var res *dto.ReconcileResponse
	err := uc.txRunner.Run(ctx, func(items repository.StockItemRepository, movements repository.StockMovementRepository) error {
		item, err := items.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		history, err := movements.ListChronological(ctx, tenantID, id)
		if err != nil {
			return err
		}
		replay := inventory.Fold(history)
		discrepancies := make([]dto.DiscrepancyDTO, 0, len(replay.Discrepancies))
		for _, d := range replay.Discrepancies {
			discrepancies = append(discrepancies, dto.DiscrepancyDTO{MovementID: d.MovementID, Seq: d.Seq, Detail: d.Detail})
		}
		res = &dto.ReconcileResponse{
			ItemID:        item.ID,
			StoredBalance: item.Quantity,
			LedgerBalance: replay.Balance,
			Movements:     replay.Movements,
			Consistent:    len(discrepancies) == 0 && replay.Balance.Equal(item.Quantity),
			Discrepancies: discrepancies,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
