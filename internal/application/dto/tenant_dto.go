package dto

import "time"

// CreateTenantRequest entrada para registrar un tenant.
// Code es opcional: si viene debe tener el prefijo de la categoría (ej. Casa_12).
type CreateTenantRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Document string `json:"document"`
	Email    string `json:"email" validate:"omitempty,email"`
	Category string `json:"category" validate:"required"`
	Code     string `json:"code,omitempty"`
}

// TenantResponse salida de un tenant.
type TenantResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Document   string    `json:"document,omitempty"`
	Email      string    `json:"email,omitempty"`
	Category   string    `json:"category"`
	Code       string    `json:"code,omitempty"`
	CodeNumber *int64    `json:"code_number,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TenantListResponse lista paginada de tenants.
type TenantListResponse struct {
	Items []TenantResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// SequenceCounterResponse estado de un contador de categoría.
type SequenceCounterResponse struct {
	Category   string    `json:"category"`
	LastNumber int64     `json:"last_number"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BackfillAssignmentDTO código asignado (o que se asignaría en dry-run) a un tenant legado.
type BackfillAssignmentDTO struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Category   string `json:"category"`
	Code       string `json:"code,omitempty"`
	CodeNumber int64  `json:"code_number,omitempty"`
}

// BackfillSkipDTO tenant que el backfill no pudo procesar.
type BackfillSkipDTO struct {
	TenantID string `json:"tenant_id"`
	Reason   string `json:"reason"`
}

// BackfillReport resultado de una ejecución del backfill.
type BackfillReport struct {
	DryRun     bool                    `json:"dry_run"`
	Limit      int                     `json:"limit"`
	Pending    int                     `json:"pending"`
	Seeded     map[string]int64        `json:"seeded"`
	Assigned   []BackfillAssignmentDTO `json:"assigned"`
	Skipped    []BackfillSkipDTO       `json:"skipped"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}
