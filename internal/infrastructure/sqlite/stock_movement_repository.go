package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre SQLite. Triggers rechazan UPDATE/DELETE.
type StockMovementRepo struct {
	q sqlx.ExtContext
}

// NewStockMovementRepository construye el adaptador. Pasar *sqlx.DB o *sqlx.Tx.
func NewStockMovementRepository(q sqlx.ExtContext) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `seq, id, tenant_id, item_id, type, quantity, previous_balance, new_balance,
	reason, note, actor_id, actor_name, created_at`

type movementRow struct {
	Seq             int64           `db:"seq"`
	ID              string          `db:"id"`
	TenantID        string          `db:"tenant_id"`
	ItemID          string          `db:"item_id"`
	Type            string          `db:"type"`
	Quantity        decimal.Decimal `db:"quantity"`
	PreviousBalance decimal.Decimal `db:"previous_balance"`
	NewBalance      decimal.Decimal `db:"new_balance"`
	Reason          string          `db:"reason"`
	Note            string          `db:"note"`
	ActorID         string          `db:"actor_id"`
	ActorName       string          `db:"actor_name"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r movementRow) toEntity() *entity.StockMovement {
	return &entity.StockMovement{
		Seq: r.Seq, ID: r.ID, TenantID: r.TenantID, ItemID: r.ItemID, Type: r.Type,
		Quantity: r.Quantity, PreviousBalance: r.PreviousBalance, NewBalance: r.NewBalance,
		Reason: r.Reason, Note: r.Note, ActorID: r.ActorID, ActorName: r.ActorName, CreatedAt: r.CreatedAt,
	}
}

// Create inserta el movimiento y completa Seq.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	err := sqlx.GetContext(ctx, r.q, &m.Seq, `
		INSERT INTO stock_movements (id, tenant_id, item_id, type, quantity, previous_balance, new_balance,
			reason, note, actor_id, actor_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`,
		m.ID, m.TenantID, m.ItemID, m.Type, m.Quantity, m.PreviousBalance, m.NewBalance,
		m.Reason, m.Note, m.ActorID, m.ActorName, m.CreatedAt.UTC(),
	)
	return wrapErr("insert stock movement", err)
}

// GetByID obtiene un movimiento del tenant.
func (r *StockMovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	var row movementRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get stock movement", err)
	}
	return row.toEntity(), nil
}

func movementWhere(f repository.MovementFilter, alias string) (string, []any) {
	conds := []string{alias + "tenant_id = ?"}
	args := []any{f.TenantID}
	add := func(cond string, v any) {
		conds = append(conds, alias+cond)
		args = append(args, v)
	}
	if f.ItemID != "" {
		add("item_id = ?", f.ItemID)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.From != nil {
		add("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		add("created_at <= ?", f.To.UTC())
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List movimientos más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	where, args := movementWhere(f, "")
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements`+where+` ORDER BY seq DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
}

// Count total de movimientos que cumplen el filtro.
func (r *StockMovementRepo) Count(ctx context.Context, f repository.MovementFilter) (int, error) {
	where, args := movementWhere(f, "")
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT count(*) FROM stock_movements`+where, args...); err != nil {
		return 0, wrapErr("count stock movements", err)
	}
	return n, nil
}

// ListChronological historial en orden de confirmación.
func (r *StockMovementRepo) ListChronological(ctx context.Context, tenantID, itemID string) ([]*entity.StockMovement, error) {
	if itemID == "" {
		return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = ? ORDER BY seq`, tenantID)
	}
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = ? AND item_id = ? ORDER BY seq`, tenantID, itemID)
}

// Summarize totales por ítem. Las sumas se hacen en decimal del lado de Go:
// SUM sobre TEXT en SQLite pasaría por REAL.
func (r *StockMovementRepo) Summarize(ctx context.Context, f repository.MovementFilter) ([]repository.MovementSummary, error) {
	where, args := movementWhere(f, "m.")
	var rows []struct {
		ItemID          string          `db:"item_id"`
		ItemName        string          `db:"item_name"`
		Type            string          `db:"type"`
		Quantity        decimal.Decimal `db:"quantity"`
		PreviousBalance decimal.Decimal `db:"previous_balance"`
		NewBalance      decimal.Decimal `db:"new_balance"`
	}
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT m.item_id, i.name AS item_name, m.type, m.quantity, m.previous_balance, m.new_balance
		FROM stock_movements m JOIN stock_items i ON i.id = m.item_id`+where+`
		ORDER BY i.name, m.item_id, m.seq`, args...)
	if err != nil {
		return nil, wrapErr("summarize stock movements", err)
	}
	out := []repository.MovementSummary{}
	for _, row := range rows {
		if len(out) == 0 || out[len(out)-1].ItemID != row.ItemID {
			out = append(out, repository.MovementSummary{ItemID: row.ItemID, ItemName: row.ItemName})
		}
		s := &out[len(out)-1]
		switch row.Type {
		case entity.MovementTypeEntry:
			s.Entries = s.Entries.Add(row.Quantity)
		case entity.MovementTypeExit:
			s.Exits = s.Exits.Add(row.Quantity)
		case entity.MovementTypeAdjustment:
			s.AdjustmentNet = s.AdjustmentNet.Add(row.NewBalance.Sub(row.PreviousBalance))
		}
		s.Count++
	}
	return out, nil
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	var rows []movementRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, wrapErr("list stock movements", err)
	}
	list := make([]*entity.StockMovement, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toEntity())
	}
	return list, nil
}
