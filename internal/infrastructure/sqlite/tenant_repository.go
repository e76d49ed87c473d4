package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación del puerto TenantRepository sobre SQLite.
type TenantRepo struct {
	q sqlx.ExtContext
}

// NewTenantRepository construye el adaptador. Pasar *sqlx.DB o *sqlx.Tx.
func NewTenantRepository(q sqlx.ExtContext) *TenantRepo {
	return &TenantRepo{q: q}
}

const tenantColumns = `id, name, COALESCE(document, '') AS document, COALESCE(email, '') AS email, category,
	COALESCE(code, '') AS code, code_number, status, created_at, updated_at`

type tenantRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Document   string    `db:"document"`
	Email      string    `db:"email"`
	Category   string    `db:"category"`
	Code       string    `db:"code"`
	CodeNumber *int64    `db:"code_number"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r tenantRow) toEntity() *entity.Tenant {
	return &entity.Tenant{
		ID: r.ID, Name: r.Name, Document: r.Document, Email: r.Email, Category: r.Category,
		Code: r.Code, CodeNumber: r.CodeNumber, Status: r.Status, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// Create persiste un nuevo tenant.
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tenants (id, name, document, email, category, code, code_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, nullString(t.Document), nullString(t.Email), t.Category,
		nullString(t.Code), t.CodeNumber, t.Status, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	return wrapErr("insert tenant", err)
}

// GetByID obtiene un tenant por ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.getOne(ctx, id)
}

// GetForUpdate relee el tenant. Dentro de la tx del TxRunner la base ya está bloqueada para escritura.
func (r *TenantRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.getOne(ctx, id)
}

func (r *TenantRepo) getOne(ctx context.Context, id string) (*entity.Tenant, error) {
	var row tenantRow
	if err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get tenant", err)
	}
	return row.toEntity(), nil
}

// AssignCode fija el código solo si la fila aún no lo tenía.
func (r *TenantRepo) AssignCode(ctx context.Context, id, category, code string, number int64) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE tenants SET category = ?, code = ?, code_number = ?, updated_at = ?
		WHERE id = ? AND code IS NULL AND code_number IS NULL`,
		category, code, number, time.Now().UTC(), id)
	if err != nil {
		return wrapErr("assign tenant code", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("assign tenant code", err)
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

// List tenants con paginación, más antiguos primero.
func (r *TenantRepo) List(ctx context.Context, limit, offset int) ([]*entity.Tenant, error) {
	return r.list(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
}

// ListMissingCode tenants sin código del más antiguo al más nuevo.
func (r *TenantRepo) ListMissingCode(ctx context.Context, limit int) ([]*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE code IS NULL OR code_number IS NULL ORDER BY created_at, id`
	if limit > 0 {
		return r.list(ctx, query+` LIMIT ?`, limit)
	}
	return r.list(ctx, query)
}

func (r *TenantRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Tenant, error) {
	var rows []tenantRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, wrapErr("list tenants", err)
	}
	list := make([]*entity.Tenant, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

// CountMissingCode cuántos tenants siguen sin código.
func (r *TenantRepo) CountMissingCode(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT count(*) FROM tenants WHERE code IS NULL OR code_number IS NULL`); err != nil {
		return 0, wrapErr("count missing code", err)
	}
	return n, nil
}

// MaxCodeNumbers mayor code_number por categoría.
func (r *TenantRepo) MaxCodeNumbers(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Category string `db:"category"`
		Max      int64  `db:"max_number"`
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT category, MAX(code_number) AS max_number FROM tenants
		WHERE code_number IS NOT NULL GROUP BY category`); err != nil {
		return nil, wrapErr("max code numbers", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Max
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
