package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// Solo inserta y lee; un trigger rechaza UPDATE/DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `seq, id, tenant_id, item_id, type, quantity, previous_balance, new_balance,
	reason, note, actor_id, actor_name, created_at`

// Create inserta el movimiento y completa Seq con el orden de confirmación asignado.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, tenant_id, item_id, type, quantity, previous_balance, new_balance,
			reason, note, actor_id, actor_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.TenantID, m.ItemID, m.Type, m.Quantity, m.PreviousBalance, m.NewBalance,
		m.Reason, m.Note, m.ActorID, m.ActorName, m.CreatedAt,
	).Scan(&m.Seq)
	return wrapErr("insert stock movement", err)
}

// GetByID obtiene un movimiento del tenant.
func (r *StockMovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get stock movement", err)
	}
	return m, nil
}

func movementWhere(f repository.MovementFilter, alias string) (string, []any) {
	conds := []string{alias + "tenant_id = $1"}
	args := []any{f.TenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, alias+fmt.Sprintf(cond, len(args)))
	}
	if f.ItemID != "" {
		add("item_id = $%d", f.ItemID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List movimientos más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	where, args := movementWhere(f, "")
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where +
		fmt.Sprintf(` ORDER BY seq DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	return r.list(ctx, query, append(args, limit, offset)...)
}

// Count total de movimientos que cumplen el filtro.
func (r *StockMovementRepo) Count(ctx context.Context, f repository.MovementFilter) (int, error) {
	where, args := movementWhere(f, "")
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements`+where, args...).Scan(&n); err != nil {
		return 0, wrapErr("count stock movements", err)
	}
	return n, nil
}

// ListChronological historial en orden de confirmación.
func (r *StockMovementRepo) ListChronological(ctx context.Context, tenantID, itemID string) ([]*entity.StockMovement, error) {
	if itemID == "" {
		return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = $1 ORDER BY seq`, tenantID)
	}
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE tenant_id = $1 AND item_id = $2 ORDER BY seq`, tenantID, itemID)
}

// Summarize totales por ítem dentro del filtro.
func (r *StockMovementRepo) Summarize(ctx context.Context, f repository.MovementFilter) ([]repository.MovementSummary, error) {
	where, args := movementWhere(f, "m.")
	query := `
		SELECT m.item_id, i.name,
			COALESCE(SUM(m.quantity) FILTER (WHERE m.type = 'entry'), 0),
			COALESCE(SUM(m.quantity) FILTER (WHERE m.type = 'exit'), 0),
			COALESCE(SUM(m.new_balance - m.previous_balance) FILTER (WHERE m.type = 'adjustment'), 0),
			count(*)
		FROM stock_movements m JOIN stock_items i ON i.id = m.item_id` + where + `
		GROUP BY m.item_id, i.name
		ORDER BY i.name, m.item_id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("summarize stock movements", err)
	}
	defer rows.Close()
	out := []repository.MovementSummary{}
	for rows.Next() {
		var s repository.MovementSummary
		if err := rows.Scan(&s.ItemID, &s.ItemName, &s.Entries, &s.Exits, &s.AdjustmentNet, &s.Count); err != nil {
			return nil, wrapErr("scan movement summary", err)
		}
		out = append(out, s)
	}
	return out, wrapErr("summarize stock movements", rows.Err())
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list stock movements", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, wrapErr("scan stock movement", err)
		}
		list = append(list, m)
	}
	return list, wrapErr("list stock movements", rows.Err())
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(
		&m.Seq, &m.ID, &m.TenantID, &m.ItemID, &m.Type, &m.Quantity, &m.PreviousBalance, &m.NewBalance,
		&m.Reason, &m.Note, &m.ActorID, &m.ActorName, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
