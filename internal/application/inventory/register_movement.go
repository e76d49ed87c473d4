package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/observability"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

const maxReasonLen = 255

// RegisterMovementUseCase registra movimientos de stock de forma transaccional
// (entry, exit, adjustment) con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
// No reintenta: un reintento ciego tras un fallo ambiguo podría aplicar dos veces el movimiento.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	publisher events.Publisher
	throttle  AlertThrottle
	log       *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso. throttle puede ser nil (sin límite de alertas).
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	publisher events.Publisher,
	throttle AlertThrottle,
	log *logger.Logger,
) *RegisterMovementUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterMovementUseCase{
		txRunner:  txRunner,
		publisher: publisher,
		throttle:  throttle,
		log:       log.Child("component", "ledger"),
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// Para entry/exit Quantity es la magnitud positiva; para adjustment es el saldo contado.
// UnitPrice solo aplica a entry y recalcula el precio promedio ponderado del ítem.
type MovementInputDTO struct {
	TenantID  string
	ItemID    string
	Type      string
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
	Reason    string
	Note      string
	ActorID   string
	ActorName string
}

// MovementResult ítem actualizado y movimiento creado.
type MovementResult struct {
	Item     *entity.StockItem
	Movement *entity.StockMovement
}

// RecordMovement valida la entrada antes de tocar el almacén, abre una transacción,
// bloquea la fila del ítem, calcula el nuevo saldo y escribe saldo y movimiento juntos.
// Una salida que dejaría saldo negativo devuelve *domain.InsufficientStockError sin cambios.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	if err := validateInput(&in); err != nil {
		observability.StockMovementsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "ledger.RecordMovement")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("item_id", in.ItemID),
		attribute.String("type", in.Type),
	)
	start := time.Now()

	var result *MovementResult
	err := uc.txRunner.Run(ctx, func(items repository.StockItemRepository, movements repository.StockMovementRepository) error {
		item, err := items.GetForUpdate(ctx, in.TenantID, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		result, err = uc.applyInTx(ctx, items, movements, item, in, time.Now().UTC())
		return err
	})
	observability.StockMovementLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.StockMovementsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ev := uc.log.Warn()
		if failureReason(err) == "persistence" {
			ev = uc.log.Error()
		}
		ev.Err(err).Str("tenant_id", in.TenantID).Str("item_id", in.ItemID).Str("type", in.Type).Msg("movimiento rechazado")
		return nil, err
	}

	uc.afterCommit(ctx, result)
	return result, nil
}

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement.
func (uc *RegisterMovementUseCase) RecordMovementFromRequest(ctx context.Context, tenantID, actorID, actorName string, in dto.RegisterMovementRequest) (*MovementResult, error) {
	return uc.RecordMovement(ctx, MovementInputDTO{
		TenantID:  tenantID,
		ItemID:    in.ItemID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		Reason:    in.Reason,
		Note:      in.Note,
		ActorID:   actorID,
		ActorName: actorName,
	})
}

// applyInTx aplica el movimiento sobre un ítem ya bloqueado, usando los repositorios
// de la transacción del llamador.
func (uc *RegisterMovementUseCase) applyInTx(
	ctx context.Context,
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
	item *entity.StockItem,
	in MovementInputDTO,
	now time.Time,
) (*MovementResult, error) {
	if !item.Active {
		return nil, domain.Invalid("el ítem %s está inactivo", item.ID)
	}
	step, err := inventory.Apply(item.Quantity, in.Type, in.Quantity)
	if err != nil {
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			ise.ItemID = item.ID
		}
		return nil, err
	}

	price := item.UnitPrice
	if in.Type == entity.MovementTypeEntry && in.UnitPrice != nil {
		price = inventory.WeightedUnitPrice(step.Previous, item.UnitPrice, step.Magnitude, *in.UnitPrice)
	}
	if err := items.UpdateBalance(ctx, item.TenantID, item.ID, step.New, price, now); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		TenantID:        item.TenantID,
		ItemID:          item.ID,
		Type:            in.Type,
		Quantity:        step.Magnitude,
		PreviousBalance: step.Previous,
		NewBalance:      step.New,
		Reason:          in.Reason,
		Note:            in.Note,
		ActorID:         in.ActorID,
		ActorName:       in.ActorName,
		CreatedAt:       now,
	}
	if err := movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	updated := *item
	updated.Quantity = step.New
	updated.UnitPrice = price
	updated.UpdatedAt = now
	return &MovementResult{Item: &updated, Movement: mov}, nil
}

func (uc *RegisterMovementUseCase) afterCommit(ctx context.Context, res *MovementResult) {
	mov, item := res.Movement, res.Item
	observability.StockMovementsTotal.WithLabelValues(mov.Type).Inc()
	uc.log.Info().
		Str("tenant_id", mov.TenantID).
		Str("item_id", mov.ItemID).
		Str("movement_id", mov.ID).
		Str("type", mov.Type).
		Str("quantity", mov.Quantity.String()).
		Str("new_balance", mov.NewBalance.String()).
		Msg("movimiento registrado")

	err := uc.publisher.Publish(ctx, events.Event{
		ID:         mov.ID,
		Type:       events.TypeMovementRecorded,
		Key:        mov.ItemID,
		TenantID:   mov.TenantID,
		OccurredAt: mov.CreatedAt,
		Payload: events.MovementRecorded{
			MovementID:      mov.ID,
			ItemID:          mov.ItemID,
			Type:            mov.Type,
			Quantity:        mov.Quantity.String(),
			PreviousBalance: mov.PreviousBalance.String(),
			NewBalance:      mov.NewBalance.String(),
			ActorID:         mov.ActorID,
		},
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("no se pudo publicar stock.movement.recorded")
	}

	if item.BelowMinimum() {
		uc.alertLowStock(ctx, item)
	}
}

func (uc *RegisterMovementUseCase) alertLowStock(ctx context.Context, item *entity.StockItem) {
	if uc.throttle != nil {
		ok, err := uc.throttle.Allow(ctx, "low-stock:"+item.TenantID+":"+item.ID)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("throttle de alertas no disponible")
		} else if !ok {
			return
		}
	}
	observability.LowStockAlertsTotal.Inc()
	err := uc.publisher.Publish(ctx, events.Event{
		ID:         uuid.New().String(),
		Type:       events.TypeLowStock,
		Key:        item.ID,
		TenantID:   item.TenantID,
		OccurredAt: time.Now().UTC(),
		Payload: events.LowStock{
			ItemID:          item.ID,
			ItemName:        item.Name,
			Quantity:        item.Quantity.String(),
			MinimumQuantity: item.MinimumQuantity.String(),
		},
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("no se pudo publicar stock.low_level")
	}
}

func validateInput(in *MovementInputDTO) error {
	in.TenantID = strings.TrimSpace(in.TenantID)
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Reason = strings.TrimSpace(in.Reason)
	in.Note = strings.TrimSpace(in.Note)

	if in.TenantID == "" {
		return domain.Invalid("tenant requerido")
	}
	if in.ItemID == "" {
		return domain.Invalid("item_id requerido")
	}
	if !entity.ValidMovementType(in.Type) {
		return domain.Invalid("tipo de movimiento inválido %q", in.Type)
	}
	if len(in.Reason) > maxReasonLen {
		return domain.Invalid("motivo demasiado largo")
	}
	if in.UnitPrice != nil {
		if in.Type != entity.MovementTypeEntry {
			return domain.Invalid("unit_price solo aplica a entradas")
		}
		if err := inventory.ValidateUnitPrice(*in.UnitPrice); err != nil {
			return err
		}
	}
	if in.Type == entity.MovementTypeAdjustment {
		if in.Quantity.IsNegative() {
			return domain.Invalid("el saldo contado no puede ser negativo")
		}
		if in.Quantity.GreaterThanOrEqual(inventory.MaxQuantity) {
			return domain.Invalid("el saldo contado excede el máximo admitido (%s)", inventory.MaxQuantity)
		}
		return nil
	}
	return inventory.ValidateQuantity(in.Quantity)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "persistence"
	}
}
