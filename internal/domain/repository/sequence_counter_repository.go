package repository

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// SequenceCounterRepository es la capacidad AtomicCounter: un contador durable por
// categoría. Cada almacén la implementa a su manera (upsert con RETURNING o
// bloqueo-lectura-incremento-escritura) y siempre dentro de la transacción del llamador,
// de modo que un rollback descarta el incremento.
type SequenceCounterRepository interface {
	// Next incrementa y devuelve el nuevo último número; crea la fila en 0 si no existía.
	Next(ctx context.Context, category string) (int64, error)
	// RaiseTo garantiza last_number >= atLeast y devuelve el valor resultante. Nunca decrementa.
	RaiseTo(ctx context.Context, category string, atLeast int64) (int64, error)
	// Get devuelve (nil, nil) si la categoría aún no tiene contador.
	Get(ctx context.Context, category string) (*entity.SequenceCounter, error)
	List(ctx context.Context) ([]*entity.SequenceCounter, error)
}
