package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// Ensure TxRunner implements los runners de cada caso de uso.
var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ sequence.TxRunner  = (*TxRunner)(nil)
	_ tenant.TxRunner    = (*TxRunner)(nil)
)

// rollbackTimeout acota el rollback cuando el contexto del llamador ya fue cancelado.
const rollbackTimeout = 5 * time.Second

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos de stock atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStockItemRepository(tx), NewStockMovementRepository(tx))
	})
}

// RunSequence transacción con el contador de secuencias.
func (r *TxRunner) RunSequence(ctx context.Context, fn func(counters repository.SequenceCounterRepository) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewSequenceCounterRepository(tx))
	})
}

// RunTenant transacción con tenants y contador juntos (registro y backfill).
func (r *TxRunner) RunTenant(ctx context.Context, fn func(
	tenants repository.TenantRepository,
	counters repository.SequenceCounterRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewTenantRepository(tx), NewSequenceCounterRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	// El rollback usa un contexto propio: si ctx se canceló, igual hay que liberar los bloqueos.
	defer func() {
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		_ = tx.Rollback(rbCtx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
