package postgres

import (
	"context"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.SequenceCounterRepository = (*SequenceCounterRepo)(nil)

// SequenceCounterRepo contador atómico sobre PostgreSQL: un solo viaje
// upsert-incremento-RETURNING; la fila queda bloqueada hasta el fin de la tx.
type SequenceCounterRepo struct {
	q Querier
}

// NewSequenceCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceCounterRepository(q Querier) *SequenceCounterRepo {
	return &SequenceCounterRepo{q: q}
}

// Next crea la fila en 1 o incrementa la existente y devuelve el nuevo valor.
func (r *SequenceCounterRepo) Next(ctx context.Context, category string) (int64, error) {
	const query = `
		INSERT INTO tenant_sequences (category, last_number, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (category)
		DO UPDATE SET last_number = tenant_sequences.last_number + 1, updated_at = now()
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(ctx, query, category).Scan(&n); err != nil {
		return 0, wrapErr("next sequence", err)
	}
	return n, nil
}

// RaiseTo eleva last_number a atLeast si estaba por debajo; nunca decrementa y
// no toca la fila si ya era suficiente.
func (r *SequenceCounterRepo) RaiseTo(ctx context.Context, category string, atLeast int64) (int64, error) {
	const upsert = `
		INSERT INTO tenant_sequences (category, last_number, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (category)
		DO UPDATE SET last_number = GREATEST(tenant_sequences.last_number, EXCLUDED.last_number), updated_at = now()
		WHERE tenant_sequences.last_number < EXCLUDED.last_number`
	if _, err := r.q.Exec(ctx, upsert, category, atLeast); err != nil {
		return 0, wrapErr("raise sequence", err)
	}
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT last_number FROM tenant_sequences WHERE category = $1`, category).Scan(&n); err != nil {
		return 0, wrapErr("read sequence", err)
	}
	return n, nil
}

// Get devuelve (nil, nil) si la categoría no tiene contador.
func (r *SequenceCounterRepo) Get(ctx context.Context, category string) (*entity.SequenceCounter, error) {
	var c entity.SequenceCounter
	err := r.q.QueryRow(ctx,
		`SELECT category, last_number, updated_at FROM tenant_sequences WHERE category = $1`, category,
	).Scan(&c.Category, &c.LastNumber, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get sequence", err)
	}
	return &c, nil
}

// List todos los contadores por categoría.
func (r *SequenceCounterRepo) List(ctx context.Context) ([]*entity.SequenceCounter, error) {
	rows, err := r.q.Query(ctx, `SELECT category, last_number, updated_at FROM tenant_sequences ORDER BY category`)
	if err != nil {
		return nil, wrapErr("list sequences", err)
	}
	defer rows.Close()
	list := []*entity.SequenceCounter{}
	for rows.Next() {
		var c entity.SequenceCounter
		if err := rows.Scan(&c.Category, &c.LastNumber, &c.UpdatedAt); err != nil {
			return nil, wrapErr("scan sequence", err)
		}
		list = append(list, &c)
	}
	return list, wrapErr("list sequences", rows.Err())
}
