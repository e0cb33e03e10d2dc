package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/inventory"
	"github.com/stocklane/stocklane/internal/platform/db"
	"github.com/stocklane/stocklane/internal/shared"
)

// Repository persists stock documents in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. Stock()
// binds the inventory operations to the same transaction, so a document's
// status flip and its stock effect commit or roll back as one unit.
type TxRepository interface {
	NextNumber(ctx context.Context, prefix string) (string, error)
	InsertReceipt(ctx context.Context, doc Receipt) (int64, error)
	InsertDelivery(ctx context.Context, doc Delivery) (int64, error)
	InsertTransfer(ctx context.Context, doc Transfer) (int64, error)
	InsertAdjustment(ctx context.Context, doc Adjustment) (int64, error)
	InsertLine(ctx context.Context, kind Kind, line Line) error
	SetStatus(ctx context.Context, kind Kind, id int64, from []Status, to Status) (bool, error)
	MarkValidated(ctx context.Context, kind Kind, id int64, from []Status, at time.Time) (bool, error)
	ClaimIdempotencyKey(ctx context.Context, key string) error
	Stock() inventory.TxRepository
}

const idempotencyModule = "documents"

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("documents repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) NextNumber(ctx context.Context, prefix string) (string, error) {
	return shared.NextDocumentNumber(ctx, r.tx, prefix)
}

func (r *txRepository) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return shared.ClaimInTx(ctx, r.tx, key, idempotencyModule)
}

func (r *txRepository) Stock() inventory.TxRepository {
	return inventory.NewTxRepository(r.tx)
}

func (r *txRepository) InsertReceipt(ctx context.Context, doc Receipt) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO receipts (number, warehouse_id, status, note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		doc.Number, doc.WarehouseID, string(doc.Status), doc.Note, nullInt(doc.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertDelivery(ctx context.Context, doc Delivery) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO deliveries (number, warehouse_id, status, note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		doc.Number, doc.WarehouseID, string(doc.Status), doc.Note, nullInt(doc.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertTransfer(ctx context.Context, doc Transfer) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transfers (number, product_id, quantity, source_warehouse_id, dest_warehouse_id, status, note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		doc.Number, doc.ProductID, doc.Quantity, doc.SourceWarehouseID, doc.DestWarehouseID, string(doc.Status), doc.Note, nullInt(doc.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertAdjustment(ctx context.Context, doc Adjustment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO adjustments (number, product_id, warehouse_id, counted_quantity, system_quantity, status, note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		doc.Number, doc.ProductID, doc.WarehouseID, doc.CountedQuantity, doc.SystemQuantity, string(doc.Status), doc.Note, nullInt(doc.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, kind Kind, line Line) error {
	table, err := lineTable(kind)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (document_id, product_id, quantity) VALUES ($1,$2,$3)`, table),
		line.DocumentID, line.ProductID, line.Quantity)
	return err
}

// SetStatus performs a compare-and-swap status transition. It reports false
// when the row was not in any of the expected statuses.
func (r *txRepository) SetStatus(ctx context.Context, kind Kind, id int64, from []Status, to Status) (bool, error) {
	table, err := headerTable(kind)
	if err != nil {
		return false, err
	}
	tag, err := r.tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET status=$1 WHERE id=$2 AND status = ANY($3)`, table),
		string(to), id, statusStrings(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkValidated flips the document to done and stamps validated_at, guarded
// by the same compare-and-swap as SetStatus.
func (r *txRepository) MarkValidated(ctx context.Context, kind Kind, id int64, from []Status, at time.Time) (bool, error) {
	table, err := headerTable(kind)
	if err != nil {
		return false, err
	}
	tag, err := r.tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET status=$1, validated_at=$2 WHERE id=$3 AND status = ANY($4)`, table),
		string(StatusDone), at, id, statusStrings(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetReceipt loads a receipt header and its lines.
func (r *Repository) GetReceipt(ctx context.Context, id int64) (Receipt, error) {
	var doc Receipt
	err := r.pool.QueryRow(ctx, `SELECT id, number, warehouse_id, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM receipts WHERE id=$1`, id).
		Scan(&doc.ID, &doc.Number, &doc.WarehouseID, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, ErrNotFound
		}
		return Receipt{}, err
	}
	doc.Lines, err = r.listLines(ctx, KindReceipt, id)
	return doc, err
}

// GetDelivery loads a delivery header and its lines.
func (r *Repository) GetDelivery(ctx context.Context, id int64) (Delivery, error) {
	var doc Delivery
	err := r.pool.QueryRow(ctx, `SELECT id, number, warehouse_id, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM deliveries WHERE id=$1`, id).
		Scan(&doc.ID, &doc.Number, &doc.WarehouseID, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Delivery{}, ErrNotFound
		}
		return Delivery{}, err
	}
	doc.Lines, err = r.listLines(ctx, KindDelivery, id)
	return doc, err
}

// GetTransfer loads a transfer header.
func (r *Repository) GetTransfer(ctx context.Context, id int64) (Transfer, error) {
	var doc Transfer
	err := r.pool.QueryRow(ctx, `SELECT id, number, product_id, quantity, source_warehouse_id, dest_warehouse_id, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM transfers WHERE id=$1`, id).
		Scan(&doc.ID, &doc.Number, &doc.ProductID, &doc.Quantity, &doc.SourceWarehouseID, &doc.DestWarehouseID, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, ErrNotFound
		}
		return Transfer{}, err
	}
	return doc, nil
}

// GetAdjustment loads an adjustment header.
func (r *Repository) GetAdjustment(ctx context.Context, id int64) (Adjustment, error) {
	var doc Adjustment
	err := r.pool.QueryRow(ctx, `SELECT id, number, product_id, warehouse_id, counted_quantity, system_quantity, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM adjustments WHERE id=$1`, id).
		Scan(&doc.ID, &doc.Number, &doc.ProductID, &doc.WarehouseID, &doc.CountedQuantity, &doc.SystemQuantity, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Adjustment{}, ErrNotFound
		}
		return Adjustment{}, err
	}
	return doc, nil
}

// ListReceipts returns receipt headers matching filter, newest first.
func (r *Repository) ListReceipts(ctx context.Context, filter ListFilter) ([]Receipt, int, error) {
	rows, total, err := r.listHeaders(ctx, KindReceipt, filter)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	docs := []Receipt{}
	for rows.Next() {
		var doc Receipt
		if err := rows.Scan(&doc.ID, &doc.Number, &doc.WarehouseID, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// ListDeliveries returns delivery headers matching filter, newest first.
func (r *Repository) ListDeliveries(ctx context.Context, filter ListFilter) ([]Delivery, int, error) {
	rows, total, err := r.listHeaders(ctx, KindDelivery, filter)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	docs := []Delivery{}
	for rows.Next() {
		var doc Delivery
		if err := rows.Scan(&doc.ID, &doc.Number, &doc.WarehouseID, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// ListTransfers returns transfer headers matching filter, newest first.
func (r *Repository) ListTransfers(ctx context.Context, filter ListFilter) ([]Transfer, int, error) {
	where, args := listWhere(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transfers`+where, args[:1]...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, number, product_id, quantity, source_warehouse_id, dest_warehouse_id, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM transfers`+where+` ORDER BY id DESC LIMIT $2 OFFSET $3`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	docs := []Transfer{}
	for rows.Next() {
		var doc Transfer
		if err := rows.Scan(&doc.ID, &doc.Number, &doc.ProductID, &doc.Quantity, &doc.SourceWarehouseID, &doc.DestWarehouseID, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// ListAdjustments returns adjustment headers matching filter, newest first.
func (r *Repository) ListAdjustments(ctx context.Context, filter ListFilter) ([]Adjustment, int, error) {
	where, args := listWhere(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM adjustments`+where, args[:1]...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, number, product_id, warehouse_id, counted_quantity, system_quantity, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM adjustments`+where+` ORDER BY id DESC LIMIT $2 OFFSET $3`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	docs := []Adjustment{}
	for rows.Next() {
		var doc Adjustment
		if err := rows.Scan(&doc.ID, &doc.Number, &doc.ProductID, &doc.WarehouseID, &doc.CountedQuantity, &doc.SystemQuantity, &doc.Status, &doc.Note, &doc.CreatedBy, &doc.ValidatedAt, &doc.CreatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

func (r *Repository) listHeaders(ctx context.Context, kind Kind, filter ListFilter) (pgx.Rows, int, error) {
	table, err := headerTable(kind)
	if err != nil {
		return nil, 0, err
	}
	where, args := listWhere(filter)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+where, args[:1]...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, number, warehouse_id, status, note, COALESCE(created_by, 0), validated_at, created_at
FROM `+table+where+` ORDER BY id DESC LIMIT $2 OFFSET $3`, args...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) listLines(ctx context.Context, kind Kind, documentID int64) ([]Line, error) {
	table, err := lineTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id, document_id, product_id, quantity FROM %s WHERE document_id=$1 ORDER BY id`, table), documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []Line{}
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.DocumentID, &line.ProductID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func listWhere(filter ListFilter) (string, []any) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	return ` WHERE ($1 = '' OR status = $1)`, []any{string(filter.Status), perPage, (page - 1) * perPage}
}

func headerTable(kind Kind) (string, error) {
	switch kind {
	case KindReceipt:
		return "receipts", nil
	case KindDelivery:
		return "deliveries", nil
	case KindTransfer:
		return "transfers", nil
	case KindAdjustment:
		return "adjustments", nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
}

func lineTable(kind Kind) (string, error) {
	switch kind {
	case KindReceipt:
		return "receipt_lines", nil
	case KindDelivery:
		return "delivery_lines", nil
	default:
		return "", fmt.Errorf("%w: kind %q has no lines", ErrValidation, kind)
	}
}

func statusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
