package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de ítems. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const itemColumns = `id, tenant_id, name, description, kind, category, unit, quantity, minimum_quantity,
	unit_price, location, lot, expires_at, active, created_at, updated_at`

// Create persiste un ítem nuevo.
func (r *StockItemRepo) Create(ctx context.Context, i *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		i.ID, i.TenantID, i.Name, i.Description, i.Kind, i.Category, i.Unit, i.Quantity, i.MinimumQuantity,
		i.UnitPrice, i.Location, i.Lot, i.ExpiresAt, i.Active, i.CreatedAt, i.UpdatedAt,
	)
	return wrapErr("insert stock item", err)
}

// GetByID obtiene el ítem del tenant.
func (r *StockItemRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate obtiene el ítem y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockItemRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *StockItemRepo) getOne(ctx context.Context, query, tenantID, id string) (*entity.StockItem, error) {
	i, err := scanItem(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get stock item", err)
	}
	return i, nil
}

// UpdateBalance escribe saldo y precio unitario.
func (r *StockItemRepo) UpdateBalance(ctx context.Context, tenantID, id string, quantity, unitPrice decimal.Decimal, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_items SET quantity = $3, unit_price = $4, updated_at = $5 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, quantity, unitPrice, at,
	)
	if err != nil {
		return wrapErr("update stock balance", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateAttributes actualiza datos descriptivos; quantity queda fuera.
func (r *StockItemRepo) UpdateAttributes(ctx context.Context, i *entity.StockItem) error {
	query := `
		UPDATE stock_items SET name = $3, description = $4, kind = $5, category = $6, unit = $7,
			minimum_quantity = $8, location = $9, lot = $10, expires_at = $11, active = $12, updated_at = $13
		WHERE tenant_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		i.TenantID, i.ID, i.Name, i.Description, i.Kind, i.Category, i.Unit,
		i.MinimumQuantity, i.Location, i.Lot, i.ExpiresAt, i.Active, i.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update stock item", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func itemWhere(f repository.StockItemFilter) (string, []any) {
	conds := []string{"tenant_id = $1"}
	args := []any{f.TenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Search != "" {
		add("name ILIKE $%d", "%"+f.Search+"%")
	}
	if f.OnlyActive {
		conds = append(conds, "active")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List ítems del tenant ordenados por nombre.
func (r *StockItemRepo) List(ctx context.Context, f repository.StockItemFilter, limit, offset int) ([]*entity.StockItem, error) {
	where, args := itemWhere(f)
	query := `SELECT ` + itemColumns + ` FROM stock_items` + where +
		fmt.Sprintf(` ORDER BY name, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	return r.list(ctx, query, append(args, limit, offset)...)
}

// Count total de ítems que cumplen el filtro.
func (r *StockItemRepo) Count(ctx context.Context, f repository.StockItemFilter) (int, error) {
	where, args := itemWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_items`+where, args...).Scan(&n); err != nil {
		return 0, wrapErr("count stock items", err)
	}
	return n, nil
}

// ListBelowMinimum ítems activos con saldo en o bajo el mínimo.
func (r *StockItemRepo) ListBelowMinimum(ctx context.Context, tenantID string) ([]*entity.StockItem, error) {
	query := `SELECT ` + itemColumns + ` FROM stock_items
		WHERE tenant_id = $1 AND active AND minimum_quantity > 0 AND quantity <= minimum_quantity
		ORDER BY name, id`
	return r.list(ctx, query, tenantID)
}

// ListExpiring ítems activos con vencimiento anterior a before.
func (r *StockItemRepo) ListExpiring(ctx context.Context, tenantID string, before time.Time) ([]*entity.StockItem, error) {
	query := `SELECT ` + itemColumns + ` FROM stock_items
		WHERE tenant_id = $1 AND active AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at, id`
	return r.list(ctx, query, tenantID, before)
}

func (r *StockItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list stock items", err)
	}
	defer rows.Close()
	list := []*entity.StockItem{}
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, wrapErr("scan stock item", err)
		}
		list = append(list, i)
	}
	return list, wrapErr("list stock items", rows.Err())
}

func scanItem(row pgx.Row) (*entity.StockItem, error) {
	var i entity.StockItem
	err := row.Scan(
		&i.ID, &i.TenantID, &i.Name, &i.Description, &i.Kind, &i.Category, &i.Unit,
		&i.Quantity, &i.MinimumQuantity, &i.UnitPrice, &i.Location, &i.Lot,
		&i.ExpiresAt, &i.Active, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
