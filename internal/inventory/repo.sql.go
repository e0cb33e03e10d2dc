package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists stock state in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds the stock operations to an existing transaction so a
// document posting can share one atomic unit with its status flip.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) GetLevelForUpdate(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	var level StockLevel
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, warehouse_id, quantity, updated_at
FROM stock_levels WHERE product_id=$1 AND warehouse_id=$2 FOR UPDATE`, productID, warehouseID).
		Scan(&level.ID, &level.ProductID, &level.WarehouseID, &level.Quantity, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{ProductID: productID, WarehouseID: warehouseID}, ErrLevelNotFound
		}
		return StockLevel{}, err
	}
	return level, nil
}

func (r *txRepository) UpsertLevel(ctx context.Context, level StockLevel) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_levels (product_id, warehouse_id, quantity, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (product_id, warehouse_id) DO UPDATE SET quantity=EXCLUDED.quantity, updated_at=NOW()`,
		level.ProductID, level.WarehouseID, level.Quantity)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements (ref_id, product_id, warehouse_id, quantity, kind, doc_kind, doc_id, line_id, doc_number, actor_id, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		mv.RefID, mv.ProductID, mv.WarehouseID, mv.Quantity, string(mv.Kind), mv.DocKind, mv.DocID, nullInt(mv.LineID), mv.DocNumber, nullInt(mv.ActorID), mv.PostedAt).Scan(&id)
	return id, err
}

// ListLevels returns stock levels matching filter, newest first.
func (r *Repository) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error) {
	if r == nil {
		return nil, 0, errors.New("inventory repository not initialised")
	}
	where := ` WHERE ($1 = 0 OR product_id = $1) AND ($2 = 0 OR warehouse_id = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_levels`+where, filter.ProductID, filter.WarehouseID).Scan(&total); err != nil {
		return nil, 0, err
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, warehouse_id, quantity, updated_at FROM stock_levels`+where+`
ORDER BY warehouse_id, product_id LIMIT $3 OFFSET $4`, filter.ProductID, filter.WarehouseID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	levels := []StockLevel{}
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.ID, &level.ProductID, &level.WarehouseID, &level.Quantity, &level.UpdatedAt); err != nil {
			return nil, 0, err
		}
		levels = append(levels, level)
	}
	return levels, total, rows.Err()
}

// ListMovements returns the ledger for a pair, oldest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, ref_id, product_id, warehouse_id, quantity, kind, doc_kind, doc_id, COALESCE(line_id, 0), doc_number, COALESCE(actor_id, 0), posted_at
FROM stock_movements
WHERE product_id=$1 AND warehouse_id=$2 AND posted_at BETWEEN COALESCE($3, '-infinity') AND COALESCE($4, 'infinity')
ORDER BY posted_at ASC, id ASC
LIMIT $5`, filter.ProductID, filter.WarehouseID, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var mv Movement
		var kind string
		if err := rows.Scan(&mv.ID, &mv.RefID, &mv.ProductID, &mv.WarehouseID, &mv.Quantity, &kind, &mv.DocKind, &mv.DocID, &mv.LineID, &mv.DocNumber, &mv.ActorID, &mv.PostedAt); err != nil {
			return nil, err
		}
		mv.Kind = MovementKind(kind)
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

// ListLowStock reports products whose total on-hand is at or below the
// reorder level.
func (r *Repository) ListLowStock(ctx context.Context, limit int) ([]LowStockRow, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.sku, p.name, p.reorder_level, COALESCE(SUM(sl.quantity), 0) AS on_hand
FROM products p
LEFT JOIN stock_levels sl ON sl.product_id = p.id
GROUP BY p.id, p.sku, p.name, p.reorder_level
HAVING COALESCE(SUM(sl.quantity), 0) <= p.reorder_level
ORDER BY p.sku
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []LowStockRow{}
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.ReorderLevel, &row.OnHand); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Reconcile compares every stored level with the signed sum of its ledger and
// returns the pairs that disagree.
func (r *Repository) Reconcile(ctx context.Context) ([]ReconciliationRow, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT sl.product_id, sl.warehouse_id, sl.quantity, COALESCE(m.total, 0)
FROM stock_levels sl
LEFT JOIN (
    SELECT product_id, warehouse_id, SUM(quantity) AS total
    FROM stock_movements
    GROUP BY product_id, warehouse_id
) m ON m.product_id = sl.product_id AND m.warehouse_id = sl.warehouse_id
WHERE sl.quantity <> COALESCE(m.total, 0)
ORDER BY sl.warehouse_id, sl.product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []ReconciliationRow{}
	for rows.Next() {
		var row ReconciliationRow
		if err := rows.Scan(&row.ProductID, &row.WarehouseID, &row.LevelQty, &row.LedgerQty); err != nil {
			return nil, err
		}
		row.Drift = row.LevelQty.Sub(row.LedgerQty)
		result = append(result, row)
	}
	return result, rows.Err()
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
