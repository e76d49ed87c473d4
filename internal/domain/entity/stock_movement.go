package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeEntry      = "entry"      // entrada
	MovementTypeExit       = "exit"       // salida
	MovementTypeAdjustment = "adjustment" // ajuste por conteo físico
)

// ValidMovementType informa si t es un tipo de movimiento admitido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement es un registro inmutable del libro de stock.
// Quantity es siempre la magnitud positiva; PreviousBalance y NewBalance son la
// foto del saldo antes y después, de modo que el libro se audita sin recalcular.
type StockMovement struct {
	Seq             int64 // orden de confirmación dentro del almacén
	ID              string
	TenantID        string
	ItemID          string
	Type            string
	Quantity        decimal.Decimal
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Reason          string
	Note            string
	ActorID         string
	ActorName       string
	CreatedAt       time.Time
}

// Delta devuelve el cambio con signo que el movimiento aplicó al saldo.
func (m *StockMovement) Delta() decimal.Decimal {
	switch m.Type {
	case MovementTypeEntry:
		return m.Quantity
	case MovementTypeExit:
		return m.Quantity.Neg()
	default:
		return m.NewBalance.Sub(m.PreviousBalance)
	}
}
