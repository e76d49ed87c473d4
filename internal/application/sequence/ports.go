package sequence

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con el contador atado a esa tx.
// Si fn devuelve error la transacción se revierte y el incremento no queda visible.
type TxRunner interface {
	RunSequence(ctx context.Context, fn func(counters repository.SequenceCounterRepository) error) error
}
