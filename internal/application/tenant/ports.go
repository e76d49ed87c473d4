package tenant

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con el repositorio de tenants y el
// contador de secuencias atados a la misma tx: el código y la fila del tenant
// se confirman o se revierten juntos.
type TxRunner interface {
	RunTenant(ctx context.Context, fn func(
		tenants repository.TenantRepository,
		counters repository.SequenceCounterRepository,
	) error) error
}
