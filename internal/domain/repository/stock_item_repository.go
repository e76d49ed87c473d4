package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// StockItemFilter filtros de listado de ítems (siempre dentro de un tenant).
type StockItemFilter struct {
	TenantID   string
	Kind       string
	Category   string
	Search     string // coincidencia parcial sobre el nombre
	OnlyActive bool
}

// StockItemRepository define el puerto para ítems de stock.
// Todas las lecturas van acotadas por tenant_id.
type StockItemRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	// GetByID devuelve (nil, nil) si no existe o pertenece a otro tenant.
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila del ítem hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error)
	// UpdateBalance escribe el nuevo saldo y precio unitario. Solo el libro de stock lo llama.
	UpdateBalance(ctx context.Context, tenantID, id string, quantity, unitPrice decimal.Decimal, at time.Time) error
	// UpdateAttributes actualiza datos descriptivos; nunca toca quantity.
	UpdateAttributes(ctx context.Context, item *entity.StockItem) error
	List(ctx context.Context, filter StockItemFilter, limit, offset int) ([]*entity.StockItem, error)
	Count(ctx context.Context, filter StockItemFilter) (int, error)
	// ListBelowMinimum ítems activos con saldo en o por debajo del mínimo.
	ListBelowMinimum(ctx context.Context, tenantID string) ([]*entity.StockItem, error)
	// ListExpiring ítems activos con lote que vence antes de la fecha dada.
	ListExpiring(ctx context.Context, tenantID string, before time.Time) ([]*entity.StockItem, error)
}
