package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

func testutilFilter(tenantID string) repository.MovementFilter {
	return repository.MovementFilter{TenantID: tenantID}
}

func TestItemCreate_SaldoInicialQuedaEnElLibro(t *testing.T) {
	f := newLedger(t, nil)
	ctx := context.Background()

	item, err := f.items.Create(ctx, f.tenant.ID, "u-1", "Ana", dto.CreateStockItemRequest{
		Name: "Dipirona 500mg", Kind: "Medicamento", Unit: "cp",
		InitialQuantity: dec("30"), MinimumQuantity: dec("10"), UnitPrice: dec("0.35"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ItemKindMedication, item.Kind)
	assert.True(t, item.Quantity.Equal(dec("30")))

	history, err := f.env.Movements.ListChronological(ctx, f.tenant.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.MovementTypeEntry, history[0].Type)
	assert.Equal(t, "saldo inicial", history[0].Reason)

	rec, err := f.items.Reconcile(ctx, f.tenant.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 1, rec.Movements)
}

func TestItemCreate_Validaciones(t *testing.T) {
	f := newLedger(t, nil)
	ctx := context.Background()

	for name, req := range map[string]dto.CreateStockItemRequest{
		"sin nombre":        {Kind: "material"},
		"tipo inválido":     {Name: "X", Kind: "equipamento"},
		"inicial negativa":  {Name: "X", InitialQuantity: dec("-1")},
		"mínimo negativo":   {Name: "X", MinimumQuantity: dec("-1")},
		"precio negativo":   {Name: "X", UnitPrice: dec("-0.01")},
		"inicial 3 decimal": {Name: "X", InitialQuantity: dec("1.234")},
	} {
		_, err := f.items.Create(ctx, f.tenant.ID, "", "", req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}

	n, err := f.env.Items.Count(ctx, repository.StockItemFilter{TenantID: f.tenant.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestItemUpdateAttributes_NoTocaElSaldo(t *testing.T) {
	f := newLedger(t, nil)
	ctx := context.Background()
	item := f.env.SeedItem(t, f.tenant.ID, "Gaze", dec("7"), decimal.Zero)

	name, minimum, inactive := "Gaze estéril", dec("3"), false
	updated, err := f.items.UpdateAttributes(ctx, f.tenant.ID, item.ID, dto.UpdateStockItemRequest{
		Name: &name, MinimumQuantity: &minimum, Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Gaze estéril", updated.Name)
	assert.False(t, updated.Active)

	stored, err := f.items.GetByID(ctx, f.tenant.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Quantity.Equal(dec("7")))
	assert.True(t, stored.MinimumQuantity.Equal(dec("3")))

	// un ítem inactivo no admite movimientos
	_, err = f.record(entity.MovementTypeEntry, "1", item.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.items.UpdateAttributes(ctx, f.tenant.ID, "no-existe", dto.UpdateStockItemRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemListYAlertas(t *testing.T) {
	f := newLedger(t, nil)
	ctx := context.Background()
	soon := time.Now().UTC().AddDate(0, 0, 5)

	low := f.env.SeedItem(t, f.tenant.ID, "Água", dec("1"), dec("5"))
	f.env.SeedItem(t, f.tenant.ID, "Algodão", dec("50"), dec("5"))
	_, err := f.items.Create(ctx, f.tenant.ID, "", "", dto.CreateStockItemRequest{
		Name: "Amoxicilina", Kind: "medicamento", InitialQuantity: dec("20"), Lot: "L-1", ExpiresAt: &soon,
	})
	require.NoError(t, err)

	list, total, err := f.items.List(ctx, repository.StockItemFilter{TenantID: f.tenant.ID}, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 2)

	alerts, err := f.items.Alerts(ctx, f.tenant.ID, 0)
	require.NoError(t, err)
	require.Len(t, alerts.LowStock, 1)
	assert.Equal(t, low.ID, alerts.LowStock[0].ID)
	assert.True(t, alerts.LowStock[0].BelowMinimum)
	require.Len(t, alerts.Expiring, 1)
	assert.Equal(t, "Amoxicilina", alerts.Expiring[0].Name)

	_, err = f.items.GetByID(ctx, f.tenant.ID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
