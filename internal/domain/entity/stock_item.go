package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ítem de stock.
const (
	ItemKindMedication = "medicamento"
	ItemKindFood       = "alimento"
	ItemKindMaterial   = "material"
	ItemKindOther      = "outros"
)

// ValidItemKind informa si kind es uno de los tipos admitidos.
func ValidItemKind(kind string) bool {
	switch kind {
	case ItemKindMedication, ItemKindFood, ItemKindMaterial, ItemKindOther:
		return true
	}
	return false
}

// StockItem representa un ítem de inventario de un tenant.
// Quantity es el saldo vivo: solo el libro de movimientos lo modifica y siempre
// es igual a la suma de los deltas de sus movimientos.
// MinimumQuantity solo alimenta alertas, no es un piso obligatorio.
type StockItem struct {
	ID              string
	TenantID        string
	Name            string
	Description     string
	Kind            string
	Category        string
	Unit            string
	Quantity        decimal.Decimal
	MinimumQuantity decimal.Decimal
	UnitPrice       decimal.Decimal
	Location        string
	Lot             string
	ExpiresAt       *time.Time
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BelowMinimum informa si el saldo está en o por debajo del mínimo configurado.
func (i *StockItem) BelowMinimum() bool {
	return i.MinimumQuantity.GreaterThan(decimal.Zero) && i.Quantity.LessThanOrEqual(i.MinimumQuantity)
}
