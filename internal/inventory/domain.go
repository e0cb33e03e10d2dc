package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind enumerates supported ledger movement kinds.
type MovementKind string

const (
	// MovementReceipt records goods entering a warehouse.
	MovementReceipt MovementKind = "receipt"
	// MovementDelivery records goods leaving a warehouse.
	MovementDelivery MovementKind = "delivery"
	// MovementTransferIn records the destination side of a transfer.
	MovementTransferIn MovementKind = "transfer_in"
	// MovementTransferOut records the source side of a transfer.
	MovementTransferOut MovementKind = "transfer_out"
	// MovementAdjustment records a counted correction.
	MovementAdjustment MovementKind = "adjustment"
)

// StockLevel is the on-hand balance for a (product, warehouse) pair.
type StockLevel struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	WarehouseID int64           `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Movement is an immutable ledger row. Quantity is signed; the sum of all
// movements for a pair should equal the stored level.
type Movement struct {
	ID          int64           `json:"id"`
	RefID       uuid.UUID       `json:"ref_id"`
	ProductID   int64           `json:"product_id"`
	WarehouseID int64           `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Kind        MovementKind    `json:"kind"`
	DocKind     string          `json:"doc_kind"`
	DocID       int64           `json:"doc_id"`
	LineID      int64           `json:"line_id,omitempty"`
	DocNumber   string          `json:"doc_number"`
	ActorID     int64           `json:"actor_id"`
	PostedAt    time.Time       `json:"posted_at"`
}

// Reference derives a stable id for the movement from its source document
// line. The same line posted against the same pair always yields the same
// value, so downstream exports can dedupe on it. LineID keeps two lines for
// the same product on one document apart; it is zero for document kinds
// without line rows.
func (m Movement) Reference() uuid.UUID {
	seed := fmt.Sprintf("%s:%d:%d:%s:%d:%d", m.DocKind, m.DocID, m.LineID, m.Kind, m.ProductID, m.WarehouseID)
	return uuid.NewSHA1(uuid.Nil, []byte(seed))
}

// LevelFilter filters stock level listings. Zero ids match everything.
type LevelFilter struct {
	ProductID   int64
	WarehouseID int64
	Page        int
	PerPage     int
}

// MovementFilter filters ledger entries for the stock card view.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	From        time.Time
	To          time.Time
	Limit       int
}

// LowStockRow reports a product whose total on-hand dropped to its reorder level.
type LowStockRow struct {
	ProductID    int64           `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	OnHand       decimal.Decimal `json:"on_hand"`
}

// ReconciliationRow reports a pair whose ledger sum disagrees with the level.
type ReconciliationRow struct {
	ProductID   int64           `json:"product_id"`
	WarehouseID int64           `json:"warehouse_id"`
	LevelQty    decimal.Decimal `json:"level_qty"`
	LedgerQty   decimal.Decimal `json:"ledger_qty"`
	Drift       decimal.Decimal `json:"drift"`
}

// ErrInsufficientStock triggered when a movement would drive a level negative.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// ErrInvalidQuantity indicates a zero or malformed quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrLevelNotFound indicates a missing stock level row.
var ErrLevelNotFound = errors.New("inventory: stock level not found")
