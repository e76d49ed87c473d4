package inventory

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el libro de stock: saldo y movimiento se confirman juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.StockItemRepository,
		movements repository.StockMovementRepository,
	) error) error
}

// AlertThrottle limita las alertas repetidas de stock bajo. Allow devuelve true
// si la alerta identificada por key puede emitirse ahora.
type AlertThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
}
