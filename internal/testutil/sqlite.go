// Package testutil arma una base SQLite real en un directorio temporal para las
// pruebas de concurrencia y de handlers.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	domainseq "github.com/cristiano-superacao/prescrimed-sub000/internal/domain/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/sqlite"
)

// Env base de prueba con el runner y los repositorios fuera de transacción.
type Env struct {
	Store     *sqlite.Store
	Tx        *sqlite.TxRunner
	Tenants   *sqlite.TenantRepo
	Counters  *sqlite.SequenceCounterRepo
	Items     *sqlite.StockItemRepo
	Movements *sqlite.StockMovementRepo
}

// NewSQLite abre una base nueva con el esquema aplicado; se cierra al terminar el test.
func NewSQLite(t testing.TB) *Env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(context.Background(), path, 10*time.Second, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	db := store.DB()
	return &Env{
		Store:     store,
		Tx:        sqlite.NewTxRunner(store),
		Tenants:   sqlite.NewTenantRepository(db),
		Counters:  sqlite.NewSequenceCounterRepository(db),
		Items:     sqlite.NewStockItemRepository(db),
		Movements: sqlite.NewStockMovementRepository(db),
	}
}

// SeedTenant inserta un tenant directamente. number == 0 lo deja sin código (legado).
func (e *Env) SeedTenant(t testing.TB, name, category string, number int64, createdAt time.Time) *entity.Tenant {
	t.Helper()
	tn := &entity.Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		Category:  category,
		Status:    entity.TenantStatusActive,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	if number > 0 {
		tn.CodeNumber = &number
		tn.Code = legacyCode(category, number)
	}
	require.NoError(t, e.Tenants.Create(context.Background(), tn))
	return tn
}

func legacyCode(category string, n int64) string {
	code, err := domainseq.FormatCode(domainseq.Category(category), n)
	if err != nil {
		return fmt.Sprintf("X%s_%02d", category, n)
	}
	return code
}

// SeedItem crea un ítem con saldo inicial; si quantity > 0 asienta la entrada
// correspondiente para que el libro cuadre.
func (e *Env) SeedItem(t testing.TB, tenantID, name string, quantity, minimum decimal.Decimal) *entity.StockItem {
	t.Helper()
	now := time.Now().UTC()
	item := &entity.StockItem{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Name:            name,
		Kind:            entity.ItemKindMaterial,
		Unit:            "un",
		Quantity:        quantity,
		MinimumQuantity: minimum,
		UnitPrice:       decimal.Zero,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := e.Tx.Run(context.Background(), func(items repository.StockItemRepository, movements repository.StockMovementRepository) error {
		if err := items.Create(context.Background(), item); err != nil {
			return err
		}
		if !quantity.IsPositive() {
			return nil
		}
		return movements.Create(context.Background(), &entity.StockMovement{
			ID:              uuid.New().String(),
			TenantID:        tenantID,
			ItemID:          item.ID,
			Type:            entity.MovementTypeEntry,
			Quantity:        quantity,
			PreviousBalance: decimal.Zero,
			NewBalance:      quantity,
			Reason:          "saldo inicial",
			CreatedAt:       now,
		})
	})
	require.NoError(t, err)
	return item
}

// RecordingPublisher guarda los eventos publicados.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish implementa events.Publisher.
func (p *RecordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// Events copia de lo publicado.
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// OfType eventos publicados de un tipo.
func (p *RecordingPublisher) OfType(typ string) []events.Event {
	var out []events.Event
	for _, ev := range p.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
