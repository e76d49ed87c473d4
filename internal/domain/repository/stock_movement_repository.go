package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// MovementFilter filtros del servicio de consulta de movimientos.
type MovementFilter struct {
	TenantID string
	ItemID   string
	Type     string
	From     *time.Time
	To       *time.Time
}

// MovementSummary agregado por ítem sobre un rango de movimientos.
type MovementSummary struct {
	ItemID        string
	ItemName      string
	Entries       decimal.Decimal
	Exits         decimal.Decimal
	AdjustmentNet decimal.Decimal
	Count         int
}

// StockMovementRepository define el puerto del libro de movimientos (append-only:
// no hay Update ni Delete).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// GetByID devuelve (nil, nil) si no existe en el tenant.
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error)
	// List más recientes primero.
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	Count(ctx context.Context, filter MovementFilter) (int, error)
	// ListChronological en orden de confirmación. itemID vacío = todo el tenant.
	ListChronological(ctx context.Context, tenantID, itemID string) ([]*entity.StockMovement, error)
	Summarize(ctx context.Context, filter MovementFilter) ([]MovementSummary, error)
}
