package repository

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// TenantRepository define el puerto de persistencia para Tenant (DIP).
// La implementación vive en infrastructure; puede estar atada a una transacción.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	// GetForUpdate relee la fila bloqueándola hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Tenant, error)
	// AssignCode fija category/code/code_number solo si code y code_number estaban vacíos.
	// Devuelve domain.ErrConflict si la fila ya tenía código.
	AssignCode(ctx context.Context, id, category, code string, number int64) error
	List(ctx context.Context, limit, offset int) ([]*entity.Tenant, error)
	// ListMissingCode devuelve tenants sin código, del más antiguo al más nuevo. limit <= 0 = sin tope.
	ListMissingCode(ctx context.Context, limit int) ([]*entity.Tenant, error)
	CountMissingCode(ctx context.Context) (int, error)
	// MaxCodeNumbers devuelve el mayor code_number ya usado por categoría.
	MaxCodeNumbers(ctx context.Context) (map[string]int64, error)
}
