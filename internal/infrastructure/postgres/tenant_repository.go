package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

// Asegura que TenantRepo implementa repository.TenantRepository.
var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación del puerto TenantRepository sobre PostgreSQL.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador de persistencia para tenants.
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

const tenantColumns = `id, name, COALESCE(document, ''), COALESCE(email, ''), category, COALESCE(code, ''), code_number, status, created_at, updated_at`

// Create persiste un nuevo tenant.
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, document, email, category, code, code_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Name, nullString(t.Document), nullString(t.Email), t.Category,
		nullString(t.Code), t.CodeNumber, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	return wrapErr("insert tenant", err)
}

// GetByID obtiene un tenant por ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

// GetForUpdate relee el tenant bloqueando la fila (SELECT FOR UPDATE).
func (r *TenantRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, id)
}

func (r *TenantRepo) getOne(ctx context.Context, query, id string) (*entity.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get tenant", err)
	}
	return t, nil
}

// AssignCode fija el código solo si la fila aún no lo tenía.
func (r *TenantRepo) AssignCode(ctx context.Context, id, category, code string, number int64) error {
	query := `
		UPDATE tenants SET category = $2, code = $3, code_number = $4, updated_at = now()
		WHERE id = $1 AND code IS NULL AND code_number IS NULL`
	cmd, err := r.q.Exec(ctx, query, id, category, code, number)
	if err != nil {
		return wrapErr("assign tenant code", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// List devuelve tenants con paginación, más antiguos primero.
func (r *TenantRepo) List(ctx context.Context, limit, offset int) ([]*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at, id LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

// ListMissingCode tenants sin código del más antiguo al más nuevo.
func (r *TenantRepo) ListMissingCode(ctx context.Context, limit int) ([]*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE code IS NULL OR code_number IS NULL ORDER BY created_at, id`
	if limit > 0 {
		return r.list(ctx, query+` LIMIT $1`, limit)
	}
	return r.list(ctx, query)
}

func (r *TenantRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Tenant, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list tenants", err)
	}
	defer rows.Close()
	list := []*entity.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, wrapErr("scan tenant", err)
		}
		list = append(list, t)
	}
	return list, wrapErr("list tenants", rows.Err())
}

// CountMissingCode cuántos tenants siguen sin código.
func (r *TenantRepo) CountMissingCode(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM tenants WHERE code IS NULL OR code_number IS NULL`).Scan(&n)
	if err != nil {
		return 0, wrapErr("count missing code", err)
	}
	return n, nil
}

// MaxCodeNumbers mayor code_number por categoría.
func (r *TenantRepo) MaxCodeNumbers(ctx context.Context) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT category, MAX(code_number) FROM tenants
		WHERE code_number IS NOT NULL GROUP BY category`)
	if err != nil {
		return nil, wrapErr("max code numbers", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, wrapErr("scan max code", err)
		}
		out[cat] = n
	}
	return out, wrapErr("max code numbers", rows.Err())
}

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var t entity.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Document, &t.Email, &t.Category, &t.Code, &t.CodeNumber, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
