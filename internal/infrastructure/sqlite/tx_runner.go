package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ sequence.TxRunner  = (*TxRunner)(nil)
	_ tenant.TxRunner    = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción SQLite (BEGIN IMMEDIATE por DSN).
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{db: s.db}
}

// Run transacción con repos de stock.
func (r *TxRunner) Run(ctx context.Context, fn func(
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(NewStockItemRepository(tx), NewStockMovementRepository(tx))
	})
}

// RunSequence transacción con el contador.
func (r *TxRunner) RunSequence(ctx context.Context, fn func(counters repository.SequenceCounterRepository) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(NewSequenceCounterRepository(tx))
	})
}

// RunTenant transacción con tenants y contador.
func (r *TxRunner) RunTenant(ctx context.Context, fn func(
	tenants repository.TenantRepository,
	counters repository.SequenceCounterRepository,
) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(NewTenantRepository(tx), NewSequenceCounterRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	// tras Commit el Rollback devuelve sql.ErrTxDone y se descarta.
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
