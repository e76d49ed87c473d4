package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Para adjustment, Quantity es el saldo contado.
type RegisterMovementRequest struct {
	ItemID    string           `json:"item_id"`
	Type      string           `json:"type"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"` // solo entry
	Reason    string           `json:"reason"`
	Note      string           `json:"note,omitempty"`
}

// CreateStockItemRequest body para POST /api/inventory/items.
type CreateStockItemRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Kind            string          `json:"kind"`
	Category        string          `json:"category,omitempty"`
	Unit            string          `json:"unit"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Location        string          `json:"location,omitempty"`
	Lot             string          `json:"lot,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
}

// UpdateStockItemRequest campos descriptivos opcionales; la cantidad no se edita aquí.
type UpdateStockItemRequest struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Kind            *string          `json:"kind,omitempty"`
	Category        *string          `json:"category,omitempty"`
	Unit            *string          `json:"unit,omitempty"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity,omitempty"`
	Location        *string          `json:"location,omitempty"`
	Lot             *string          `json:"lot,omitempty"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
	Active          *bool            `json:"active,omitempty"`
}

// StockItemResponse salida de un ítem.
type StockItemResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Kind            string          `json:"kind"`
	Category        string          `json:"category,omitempty"`
	Unit            string          `json:"unit"`
	Quantity        decimal.Decimal `json:"quantity"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Location        string          `json:"location,omitempty"`
	Lot             string          `json:"lot,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	Active          bool            `json:"active"`
	BelowMinimum    bool            `json:"below_minimum"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StockItemListResponse lista paginada de ítems.
type StockItemListResponse struct {
	Items []StockItemResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Reason          string          `json:"reason,omitempty"`
	Note            string          `json:"note,omitempty"`
	ActorID         string          `json:"actor_id,omitempty"`
	ActorName       string          `json:"actor_name,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos (más recientes primero).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// RecordMovementResponse respuesta de POST /api/inventory/movements.
type RecordMovementResponse struct {
	Item     StockItemResponse `json:"item"`
	Movement MovementResponse  `json:"movement"`
}

// MovementSummaryDTO agregado por ítem.
type MovementSummaryDTO struct {
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Entries       decimal.Decimal `json:"entries"`
	Exits         decimal.Decimal `json:"exits"`
	AdjustmentNet decimal.Decimal `json:"adjustment_net"`
	Count         int             `json:"count"`
}

// StockAlertsResponse ítems en o bajo el mínimo y lotes por vencer.
type StockAlertsResponse struct {
	LowStock []StockItemResponse `json:"low_stock"`
	Expiring []StockItemResponse `json:"expiring"`
}

// DiscrepancyDTO movimiento que no encadena con el anterior.
type DiscrepancyDTO struct {
	MovementID string `json:"movement_id"`
	Seq        int64  `json:"seq"`
	Detail     string `json:"detail"`
}

// ReconcileResponse resultado de reconstruir el saldo desde el historial.
type ReconcileResponse struct {
	ItemID        string           `json:"item_id"`
	StoredBalance decimal.Decimal  `json:"stored_balance"`
	LedgerBalance decimal.Decimal  `json:"ledger_balance"`
	Movements     int              `json:"movements"`
	Consistent    bool             `json:"consistent"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

// ArchiveResponse ubicación del archivo exportado.
type ArchiveResponse struct {
	Key       string    `json:"key"`
	Items     int       `json:"items"`
	Movements int       `json:"movements"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchiveObjectDTO archivo existente en el almacén.
type ArchiveObjectDTO struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
