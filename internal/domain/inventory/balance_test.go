package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply_Entrada(t *testing.T) {
	step, err := inventory.Apply(d("10"), entity.MovementTypeEntry, d("2.5"))
	require.NoError(t, err)
	assert.True(t, step.New.Equal(d("12.5")))
	assert.True(t, step.Magnitude.Equal(d("2.5")))
}

func TestApply_SalidaHastaCero(t *testing.T) {
	step, err := inventory.Apply(d("6"), entity.MovementTypeExit, d("6"))
	require.NoError(t, err)
	assert.True(t, step.New.IsZero())
}

func TestApply_SalidaInsuficiente(t *testing.T) {
	_, err := inventory.Apply(d("4"), entity.MovementTypeExit, d("6"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Available.Equal(d("4")))
	assert.True(t, ise.Requested.Equal(d("6")))
}

func TestApply_CantidadInvalida(t *testing.T) {
	for _, q := range []string{"0", "-1", "0.001"} {
		_, err := inventory.Apply(d("10"), entity.MovementTypeEntry, d(q))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, q)
	}
	_, err := inventory.Apply(d("10"), "transfer", d("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_Ajuste(t *testing.T) {
	step, err := inventory.Apply(d("10"), entity.MovementTypeAdjustment, d("7"))
	require.NoError(t, err)
	assert.True(t, step.New.Equal(d("7")))
	assert.True(t, step.Magnitude.Equal(d("3")))

	step, err = inventory.Apply(d("10"), entity.MovementTypeAdjustment, d("0"))
	require.NoError(t, err)
	assert.True(t, step.New.IsZero())

	_, err = inventory.Apply(d("10"), entity.MovementTypeAdjustment, d("10"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = inventory.Apply(d("10"), entity.MovementTypeAdjustment, d("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFold_HistorialConsistente(t *testing.T) {
	movs := []*entity.StockMovement{
		{Seq: 1, ID: "a", Type: entity.MovementTypeEntry, Quantity: d("10"), PreviousBalance: d("0"), NewBalance: d("10")},
		{Seq: 2, ID: "b", Type: entity.MovementTypeExit, Quantity: d("6"), PreviousBalance: d("10"), NewBalance: d("4")},
		{Seq: 3, ID: "c", Type: entity.MovementTypeAdjustment, Quantity: d("1"), PreviousBalance: d("4"), NewBalance: d("5")},
	}
	r := inventory.Fold(movs)
	assert.True(t, r.Balance.Equal(d("5")))
	assert.Equal(t, 3, r.Movements)
	assert.Empty(t, r.Discrepancies)
}

func TestFold_DetectaCadenaRota(t *testing.T) {
	movs := []*entity.StockMovement{
		{Seq: 1, ID: "a", Type: entity.MovementTypeEntry, Quantity: d("10"), PreviousBalance: d("0"), NewBalance: d("10")},
		{Seq: 2, ID: "b", Type: entity.MovementTypeExit, Quantity: d("6"), PreviousBalance: d("9"), NewBalance: d("3")},
	}
	r := inventory.Fold(movs)
	require.Len(t, r.Discrepancies, 1)
	assert.Equal(t, "b", r.Discrepancies[0].MovementID)
}

func TestFold_Vacio(t *testing.T) {
	r := inventory.Fold(nil)
	assert.True(t, r.Balance.IsZero())
	assert.Zero(t, r.Movements)
}

func TestWeightedUnitPrice(t *testing.T) {
	got := inventory.WeightedUnitPrice(d("10"), d("2"), d("10"), d("4"))
	assert.True(t, got.Equal(d("3")), got.String())
	got = inventory.WeightedUnitPrice(d("0"), d("9"), d("5"), d("1.5"))
	assert.True(t, got.Equal(d("1.5")), got.String())
}

func TestApply_TopeDeCantidad(t *testing.T) {
	_, err := inventory.Apply(d("0"), entity.MovementTypeEntry, d("1000000000000"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	// la magnitud cabe pero el saldo resultante no
	_, err = inventory.Apply(d("999999999999"), entity.MovementTypeEntry, d("1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = inventory.Apply(d("5"), entity.MovementTypeAdjustment, d("1000000000000"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	step, err := inventory.Apply(d("999999999998"), entity.MovementTypeEntry, d("1.99"))
	require.NoError(t, err)
	assert.True(t, step.New.Equal(d("999999999999.99")))
}

func TestValidateMinimumYPrecio(t *testing.T) {
	assert.NoError(t, inventory.ValidateMinimum(d("0")))
	assert.True(t, errors.Is(inventory.ValidateMinimum(d("-1")), domain.ErrInvalidInput))
	assert.True(t, errors.Is(inventory.ValidateMinimum(d("1000000000000")), domain.ErrInvalidInput))
	assert.NoError(t, inventory.ValidateUnitPrice(d("9999999999.9999")))
	assert.True(t, errors.Is(inventory.ValidateUnitPrice(d("10000000000")), domain.ErrInvalidInput))
}
