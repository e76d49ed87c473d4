package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/postgres"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/config"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// Requiere TEST_DATABASE_URL apuntando a una base desechable: las tablas se vacían.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 20, LockTimeoutMS: 5000})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE stock_movements, stock_items, tenants, tenant_sequences`)
	require.NoError(t, err)
	return pool
}

func TestPostgres_AsignacionConcurrente(t *testing.T) {
	pool := openPool(t)
	alloc := sequence.NewAllocator(postgres.NewTxRunner(pool), sequence.DefaultRetryPolicy(), logger.Nop())

	const n = 40
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := alloc.Allocate(context.Background(), "casa-repouso")
			if assert.NoError(t, err) {
				numbers <- a.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int64]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "número repetido %d", num)
		seen[num] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "falta %d", i)
	}

	c, err := postgres.NewSequenceCounterRepository(pool).Get(context.Background(), "casa-repouso")
	require.NoError(t, err)
	assert.Equal(t, int64(n), c.LastNumber)
}

func TestPostgres_SalidasConcurrentes(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	tx := postgres.NewTxRunner(pool)

	now := time.Now().UTC()
	one := int64(1)
	tn := &entity.Tenant{ID: uuid.New().String(), Name: "Lar", Category: "casa-repouso", Code: "Casa_01", CodeNumber: &one,
		Status: entity.TenantStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewTenantRepository(pool).Create(ctx, tn))

	ledger := inventory.NewRegisterMovementUseCase(tx, nil, nil, logger.Nop())
	items := inventory.NewItemUseCase(tx, postgres.NewStockItemRepository(pool), postgres.NewStockMovementRepository(pool), ledger)
	item, err := items.Create(ctx, tn.ID, "u", "Ana", dtoItem("Soro", "10"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordMovement(ctx, inventory.MovementInputDTO{
				TenantID: tn.ID, ItemID: item.ID, Type: entity.MovementTypeExit, Quantity: decimal.NewFromInt(6),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		var ise *domain.InsufficientStockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &ise):
			insufficient++
			assert.True(t, ise.Available.Equal(decimal.NewFromInt(4)))
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	rc, err := items.Reconcile(ctx, tn.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, rc.Consistent)
	assert.Equal(t, 2, rc.Movements)

	// el historial no admite UPDATE ni DELETE
	_, err = pool.Exec(ctx, `DELETE FROM stock_movements WHERE item_id = $1`, item.ID)
	assert.Error(t, err)

	filter := repository.MovementFilter{TenantID: tn.ID, ItemID: item.ID}
	n, err := postgres.NewStockMovementRepository(pool).Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func dtoItem(name, qty string) dto.CreateStockItemRequest {
	return dto.CreateStockItemRequest{
		Name:            name,
		Kind:            entity.ItemKindMaterial,
		Unit:            "un",
		InitialQuantity: decimal.RequireFromString(qty),
	}
}
