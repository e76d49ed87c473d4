package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.SequenceCounterRepository = (*SequenceCounterRepo)(nil)

// SequenceCounterRepo contador sobre SQLite: bloqueo-lectura-incremento-escritura.
// Debe usarse dentro de una tx del TxRunner (BEGIN IMMEDIATE ya tiene el candado de escritura).
type SequenceCounterRepo struct {
	q sqlx.ExtContext
}

// NewSequenceCounterRepository construye el adaptador. Pasar *sqlx.DB o *sqlx.Tx.
func NewSequenceCounterRepository(q sqlx.ExtContext) *SequenceCounterRepo {
	return &SequenceCounterRepo{q: q}
}

type counterRow struct {
	Category   string    `db:"category"`
	LastNumber int64     `db:"last_number"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r counterRow) toEntity() *entity.SequenceCounter {
	return &entity.SequenceCounter{Category: r.Category, LastNumber: r.LastNumber, UpdatedAt: r.UpdatedAt}
}

func (r *SequenceCounterRepo) ensure(ctx context.Context, category string) (int64, error) {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tenant_sequences (category, last_number, updated_at) VALUES (?, 0, ?)
		ON CONFLICT (category) DO NOTHING`, category, time.Now().UTC())
	if err != nil {
		return 0, wrapErr("ensure sequence", err)
	}
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT last_number FROM tenant_sequences WHERE category = ?`, category); err != nil {
		return 0, wrapErr("read sequence", err)
	}
	return n, nil
}

func (r *SequenceCounterRepo) write(ctx context.Context, category string, from, to int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tenant_sequences SET last_number = ?, updated_at = ? WHERE category = ? AND last_number = ?`,
		to, time.Now().UTC(), category, from)
	if err != nil {
		return wrapErr("write sequence", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapErr("write sequence", err)
	} else if n == 0 {
		// otro escritor movió el contador entre la lectura y la escritura
		return domain.ErrConflict
	}
	return nil
}

// Next lee, incrementa y escribe; devuelve el nuevo valor.
func (r *SequenceCounterRepo) Next(ctx context.Context, category string) (int64, error) {
	last, err := r.ensure(ctx, category)
	if err != nil {
		return 0, err
	}
	if err := r.write(ctx, category, last, last+1); err != nil {
		return 0, err
	}
	return last + 1, nil
}

// RaiseTo eleva last_number a atLeast si estaba por debajo; nunca decrementa.
func (r *SequenceCounterRepo) RaiseTo(ctx context.Context, category string, atLeast int64) (int64, error) {
	last, err := r.ensure(ctx, category)
	if err != nil {
		return 0, err
	}
	if last >= atLeast {
		return last, nil
	}
	if err := r.write(ctx, category, last, atLeast); err != nil {
		return 0, err
	}
	return atLeast, nil
}

// Get devuelve (nil, nil) si la categoría no tiene contador.
func (r *SequenceCounterRepo) Get(ctx context.Context, category string) (*entity.SequenceCounter, error) {
	var row counterRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT category, last_number, updated_at FROM tenant_sequences WHERE category = ?`, category)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get sequence", err)
	}
	return row.toEntity(), nil
}

// List todos los contadores por categoría.
func (r *SequenceCounterRepo) List(ctx context.Context) ([]*entity.SequenceCounter, error) {
	var rows []counterRow
	if err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT category, last_number, updated_at FROM tenant_sequences ORDER BY category`); err != nil {
		return nil, wrapErr("list sequences", err)
	}
	list := make([]*entity.SequenceCounter, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}
