package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre SQLite.
type StockItemRepo struct {
	q sqlx.ExtContext
}

// NewStockItemRepository construye el adaptador. Pasar *sqlx.DB o *sqlx.Tx.
func NewStockItemRepository(q sqlx.ExtContext) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const itemColumns = `id, tenant_id, name, description, kind, category, unit, quantity, minimum_quantity,
	unit_price, location, lot, expires_at, active, created_at, updated_at`

type itemRow struct {
	ID              string          `db:"id"`
	TenantID        string          `db:"tenant_id"`
	Name            string          `db:"name"`
	Description     string          `db:"description"`
	Kind            string          `db:"kind"`
	Category        string          `db:"category"`
	Unit            string          `db:"unit"`
	Quantity        decimal.Decimal `db:"quantity"`
	MinimumQuantity decimal.Decimal `db:"minimum_quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	Location        string          `db:"location"`
	Lot             string          `db:"lot"`
	ExpiresAt       *time.Time      `db:"expires_at"`
	Active          bool            `db:"active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r itemRow) toEntity() *entity.StockItem {
	return &entity.StockItem{
		ID: r.ID, TenantID: r.TenantID, Name: r.Name, Description: r.Description, Kind: r.Kind,
		Category: r.Category, Unit: r.Unit, Quantity: r.Quantity, MinimumQuantity: r.MinimumQuantity,
		UnitPrice: r.UnitPrice, Location: r.Location, Lot: r.Lot, ExpiresAt: r.ExpiresAt,
		Active: r.Active, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Create persiste un ítem nuevo.
func (r *StockItemRepo) Create(ctx context.Context, i *entity.StockItem) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO stock_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.TenantID, i.Name, i.Description, i.Kind, i.Category, i.Unit, i.Quantity, i.MinimumQuantity,
		i.UnitPrice, i.Location, i.Lot, utcPtr(i.ExpiresAt), i.Active, i.CreatedAt.UTC(), i.UpdatedAt.UTC(),
	)
	return wrapErr("insert stock item", err)
}

// GetByID obtiene el ítem del tenant.
func (r *StockItemRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	var row itemRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+itemColumns+` FROM stock_items WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get stock item", err)
	}
	return row.toEntity(), nil
}

// GetForUpdate igual que GetByID: la tx del TxRunner ya tiene el candado de escritura.
func (r *StockItemRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, tenantID, id)
}

// UpdateBalance escribe saldo y precio unitario.
func (r *StockItemRepo) UpdateBalance(ctx context.Context, tenantID, id string, quantity, unitPrice decimal.Decimal, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stock_items SET quantity = ?, unit_price = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
		quantity, unitPrice, at.UTC(), tenantID, id)
	return affectedOne("update stock balance", res, err)
}

// UpdateAttributes actualiza datos descriptivos; quantity queda fuera.
func (r *StockItemRepo) UpdateAttributes(ctx context.Context, i *entity.StockItem) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE stock_items SET name = ?, description = ?, kind = ?, category = ?, unit = ?,
			minimum_quantity = ?, location = ?, lot = ?, expires_at = ?, active = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?`,
		i.Name, i.Description, i.Kind, i.Category, i.Unit, i.MinimumQuantity, i.Location, i.Lot,
		utcPtr(i.ExpiresAt), i.Active, i.UpdatedAt.UTC(), i.TenantID, i.ID,
	)
	return affectedOne("update stock item", res, err)
}

func itemWhere(f repository.StockItemFilter) (string, []any) {
	conds := []string{"tenant_id = ?"}
	args := []any{f.TenantID}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		// LIKE de SQLite ya es insensible a mayúsculas para ASCII
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.OnlyActive {
		conds = append(conds, "active = 1")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List ítems del tenant ordenados por nombre.
func (r *StockItemRepo) List(ctx context.Context, f repository.StockItemFilter, limit, offset int) ([]*entity.StockItem, error) {
	where, args := itemWhere(f)
	return r.list(ctx, `SELECT `+itemColumns+` FROM stock_items`+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
}

// Count total de ítems que cumplen el filtro.
func (r *StockItemRepo) Count(ctx context.Context, f repository.StockItemFilter) (int, error) {
	where, args := itemWhere(f)
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT count(*) FROM stock_items`+where, args...); err != nil {
		return 0, wrapErr("count stock items", err)
	}
	return n, nil
}

// ListBelowMinimum ítems activos con saldo en o bajo el mínimo.
func (r *StockItemRepo) ListBelowMinimum(ctx context.Context, tenantID string) ([]*entity.StockItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM stock_items
		WHERE tenant_id = ? AND active = 1 AND CAST(minimum_quantity AS REAL) > 0
			AND CAST(quantity AS REAL) <= CAST(minimum_quantity AS REAL)
		ORDER BY name, id`, tenantID)
}

// ListExpiring ítems activos con vencimiento anterior a before.
func (r *StockItemRepo) ListExpiring(ctx context.Context, tenantID string, before time.Time) ([]*entity.StockItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM stock_items
		WHERE tenant_id = ? AND active = 1 AND expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY expires_at, id`, tenantID, before.UTC())
}

func (r *StockItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockItem, error) {
	var rows []itemRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, wrapErr("list stock items", err)
	}
	list := make([]*entity.StockItem, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}

func affectedOne(op string, res interface{ RowsAffected() (int64, error) }, err error) error {
	if err != nil {
		return wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
