package entity

import "time"

// SequenceCounter guarda el último número emitido por categoría de tenant.
// LastNumber nunca decrece y nunca se reutiliza.
type SequenceCounter struct {
	Category   string
	LastNumber int64
	UpdatedAt  time.Time
}
