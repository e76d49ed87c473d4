package entity

import "time"

// Estados de un tenant.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusInactive  = "inactive"
)

// Tenant representa una cuenta aislada (casa de reposo, clínica o petshop).
// Code y CodeNumber van juntos: ambos vacíos o ambos definidos, y una vez
// asignados no cambian.
type Tenant struct {
	ID         string
	Name       string
	Document   string // CNPJ u otro documento fiscal, opcional
	Email      string
	Category   string // discriminador de la serie de códigos (ver sequence.Category)
	Code       string // ej. Casa_07
	CodeNumber *int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasCode informa si el tenant ya tiene código asignado.
func (t *Tenant) HasCode() bool {
	return t.Code != "" && t.CodeNumber != nil
}
