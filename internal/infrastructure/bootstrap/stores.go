// Package bootstrap elige la implementación de persistencia según DB_DRIVER y
// arma los adaptadores opcionales (eventos, throttle, archivo).
package bootstrap

import (
	"context"
	"fmt"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/postgres"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/sqlite"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/config"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// TxRunner une los runners de todos los casos de uso; ambos almacenes lo implementan.
type TxRunner interface {
	inventory.TxRunner
	sequence.TxRunner
	tenant.TxRunner
}

// Stores repositorios fuera de transacción más el runner, del driver elegido.
type Stores struct {
	Driver    string
	Tx        TxRunner
	Tenants   repository.TenantRepository
	Counters  repository.SequenceCounterRepository
	Items     repository.StockItemRepository
	Movements repository.StockMovementRepository
	Ping      func(ctx context.Context) error
	close     func()
}

// Close libera la conexión del almacén.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores abre el almacén configurado y aplica migraciones si corresponde.
func OpenStores(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		log.Info().Str("driver", config.DriverPostgres).Msg("almacén abierto")
		return &Stores{
			Driver:    config.DriverPostgres,
			Tx:        postgres.NewTxRunner(pool),
			Tenants:   postgres.NewTenantRepository(pool),
			Counters:  postgres.NewSequenceCounterRepository(pool),
			Items:     postgres.NewStockItemRepository(pool),
			Movements: postgres.NewStockMovementRepository(pool),
			Ping:      pool.Ping,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.LockTimeout(), cfg.AutoMigrate)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", config.DriverSQLite).Str("path", store.Path()).Msg("almacén abierto")
		db := store.DB()
		return &Stores{
			Driver:    config.DriverSQLite,
			Tx:        sqlite.NewTxRunner(store),
			Tenants:   sqlite.NewTenantRepository(db),
			Counters:  sqlite.NewSequenceCounterRepository(db),
			Items:     sqlite.NewStockItemRepository(db),
			Movements: sqlite.NewStockMovementRepository(db),
			Ping:      db.PingContext,
			close:     func() { _ = store.Close() },
		}, nil
	}
	return nil, fmt.Errorf("driver de base de datos no soportado: %q", cfg.Driver)
}
