// Package inventory contiene la aritmética pura del libro de stock: aplicar un
// movimiento a un saldo y reconstruir el saldo a partir del historial.
package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// Escalas de persistencia (NUMERIC(14,2) para cantidades, NUMERIC(14,4) para precios).
const (
	QuantityScale = 2
	PriceScale    = 4
)

var (
	// MaxQuantity tope exclusivo de cantidades y saldos; NUMERIC(14,2) no admite más.
	MaxQuantity = decimal.New(1, 12)
	// MaxUnitPrice tope exclusivo de precios (NUMERIC(14,4)).
	MaxUnitPrice = decimal.New(1, 10)
)

// Step es el resultado de aplicar un movimiento: saldo anterior, saldo nuevo y la
// magnitud positiva que se guarda en el movimiento.
type Step struct {
	Previous  decimal.Decimal
	New       decimal.Decimal
	Magnitude decimal.Decimal
}

// ValidateQuantity exige una cantidad positiva con a lo sumo QuantityScale decimales.
func ValidateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return domain.Invalid("la cantidad debe ser positiva")
	}
	if !q.Equal(q.Truncate(QuantityScale)) {
		return domain.Invalid("la cantidad admite como máximo %d decimales", QuantityScale)
	}
	return checkMax(q)
}

// ValidateMinimum valida un mínimo de stock: cero o positivo, escala y tope.
func ValidateMinimum(q decimal.Decimal) error {
	if q.IsNegative() {
		return domain.Invalid("minimum_quantity no puede ser negativa")
	}
	if !q.Equal(q.Truncate(QuantityScale)) {
		return domain.Invalid("minimum_quantity admite como máximo %d decimales", QuantityScale)
	}
	return checkMax(q)
}

// ValidateUnitPrice valida un precio unitario: cero o positivo y bajo MaxUnitPrice.
func ValidateUnitPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return domain.Invalid("unit_price no puede ser negativo")
	}
	if p.GreaterThanOrEqual(MaxUnitPrice) {
		return domain.Invalid("unit_price excede el máximo admitido (%s)", MaxUnitPrice)
	}
	return nil
}

func checkMax(q decimal.Decimal) error {
	if q.GreaterThanOrEqual(MaxQuantity) {
		return domain.Invalid("la cantidad excede el máximo admitido (%s)", MaxQuantity)
	}
	return nil
}

// Apply calcula el saldo resultante de un movimiento sobre previous.
// Para entry y exit quantity es la magnitud; para adjustment es el saldo contado
// y la magnitud guardada es la diferencia absoluta.
// Una salida que deja saldo negativo devuelve *domain.InsufficientStockError sin ItemID.
func Apply(previous decimal.Decimal, movementType string, quantity decimal.Decimal) (Step, error) {
	switch movementType {
	case entity.MovementTypeEntry:
		if err := ValidateQuantity(quantity); err != nil {
			return Step{}, err
		}
		next := previous.Add(quantity)
		if next.GreaterThanOrEqual(MaxQuantity) {
			return Step{}, domain.Invalid("el saldo resultante excede el máximo admitido (%s)", MaxQuantity)
		}
		return Step{Previous: previous, New: next, Magnitude: quantity}, nil
	case entity.MovementTypeExit:
		if err := ValidateQuantity(quantity); err != nil {
			return Step{}, err
		}
		candidate := previous.Sub(quantity)
		if candidate.IsNegative() {
			return Step{}, &domain.InsufficientStockError{Available: previous, Requested: quantity}
		}
		return Step{Previous: previous, New: candidate, Magnitude: quantity}, nil
	case entity.MovementTypeAdjustment:
		if quantity.IsNegative() {
			return Step{}, domain.Invalid("el saldo contado no puede ser negativo")
		}
		if !quantity.Equal(quantity.Truncate(QuantityScale)) {
			return Step{}, domain.Invalid("la cantidad admite como máximo %d decimales", QuantityScale)
		}
		if err := checkMax(quantity); err != nil {
			return Step{}, err
		}
		diff := quantity.Sub(previous)
		if diff.IsZero() {
			return Step{}, domain.Invalid("el ajuste no cambia el saldo")
		}
		return Step{Previous: previous, New: quantity, Magnitude: diff.Abs()}, nil
	}
	return Step{}, domain.Invalid("tipo de movimiento desconocido %q", movementType)
}

// Discrepancy describe un movimiento que no encadena con el anterior.
type Discrepancy struct {
	MovementID string
	Seq        int64
	Detail     string
}

// Replay es el resultado de plegar un historial en orden de confirmación.
type Replay struct {
	Balance       decimal.Decimal
	Movements     int
	Discrepancies []Discrepancy
}

// Fold reconstruye el saldo desde cero sumando los deltas con signo y verifica que
// cada foto anterior/posterior encadene. movements debe venir en orden de confirmación.
func Fold(movements []*entity.StockMovement) Replay {
	r := Replay{Balance: decimal.Zero, Discrepancies: []Discrepancy{}}
	for _, m := range movements {
		if !m.PreviousBalance.Equal(r.Balance) {
			r.Discrepancies = append(r.Discrepancies, Discrepancy{
				MovementID: m.ID, Seq: m.Seq,
				Detail: fmt.Sprintf("saldo anterior %s, esperado %s", m.PreviousBalance, r.Balance),
			})
		}
		if err := checkSnapshot(m); err != nil {
			r.Discrepancies = append(r.Discrepancies, Discrepancy{MovementID: m.ID, Seq: m.Seq, Detail: err.Error()})
		}
		r.Balance = r.Balance.Add(m.Delta())
		r.Movements++
	}
	return r
}

func checkSnapshot(m *entity.StockMovement) error {
	var want decimal.Decimal
	switch m.Type {
	case entity.MovementTypeEntry:
		want = m.PreviousBalance.Add(m.Quantity)
	case entity.MovementTypeExit:
		want = m.PreviousBalance.Sub(m.Quantity)
	case entity.MovementTypeAdjustment:
		if !m.NewBalance.Sub(m.PreviousBalance).Abs().Equal(m.Quantity) {
			return fmt.Errorf("ajuste con magnitud %s no coincide con %s -> %s", m.Quantity, m.PreviousBalance, m.NewBalance)
		}
		want = m.NewBalance
	default:
		return fmt.Errorf("tipo desconocido %q", m.Type)
	}
	if !want.Equal(m.NewBalance) {
		return fmt.Errorf("saldo nuevo %s, esperado %s", m.NewBalance, want)
	}
	if m.NewBalance.IsNegative() {
		return fmt.Errorf("saldo negativo %s", m.NewBalance)
	}
	return nil
}
