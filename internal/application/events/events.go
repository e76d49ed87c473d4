// Package events define los eventos de integración que el núcleo publica
// después de confirmar una transacción.
package events

import (
	"context"
	"time"
)

// Tipos de evento.
const (
	TypeMovementRecorded   = "stock.movement.recorded"
	TypeLowStock           = "stock.low_level"
	TypeTenantCodeAssigned = "tenant.code.assigned"
)

// Event envelope publicado al bus. Key agrupa la partición (ítem o tenant).
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	TenantID   string    `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher publica eventos. Las implementaciones no participan de la transacción:
// se llaman después del commit y un fallo no deshace nada.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop descarta todos los eventos.
type Nop struct{}

// Publish implementa Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// MovementRecorded payload de TypeMovementRecorded.
type MovementRecorded struct {
	MovementID      string `json:"movement_id"`
	ItemID          string `json:"item_id"`
	Type            string `json:"type"`
	Quantity        string `json:"quantity"`
	PreviousBalance string `json:"previous_balance"`
	NewBalance      string `json:"new_balance"`
	ActorID         string `json:"actor_id,omitempty"`
}

// LowStock payload de TypeLowStock.
type LowStock struct {
	ItemID          string `json:"item_id"`
	ItemName        string `json:"item_name"`
	Quantity        string `json:"quantity"`
	MinimumQuantity string `json:"minimum_quantity"`
}

// TenantCodeAssigned payload de TypeTenantCodeAssigned.
type TenantCodeAssigned struct {
	Category   string `json:"category"`
	Code       string `json:"code"`
	CodeNumber int64  `json:"code_number"`
	Source     string `json:"source"` // register | backfill
}
