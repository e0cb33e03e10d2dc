package documents

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates stock document kinds.
type Kind string

const (
	KindReceipt    Kind = "receipt"
	KindDelivery   Kind = "delivery"
	KindTransfer   Kind = "transfer"
	KindAdjustment Kind = "adjustment"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	switch k {
	case KindReceipt, KindDelivery, KindTransfer, KindAdjustment:
		return true
	default:
		return false
	}
}

// Prefix returns the document number prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindReceipt:
		return "RCP"
	case KindDelivery:
		return "DEL"
	case KindTransfer:
		return "TRF"
	case KindAdjustment:
		return "ADJ"
	default:
		return ""
	}
}

// Status enumerates the document lifecycle.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusWaiting  Status = "waiting"
	StatusReady    Status = "ready"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
)

// Pending reports whether the document can still be validated.
func (s Status) Pending() bool {
	return s == StatusDraft || s == StatusWaiting || s == StatusReady
}

// pendingStatuses is the set used by the conditional status flip during
// validation. Adjustments only ever leave draft.
var pendingStatuses = []Status{StatusDraft, StatusWaiting, StatusReady}

// Line is a product/quantity pair on a receipt or delivery.
type Line struct {
	ID         int64           `json:"id"`
	DocumentID int64           `json:"document_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Receipt brings goods into a warehouse.
type Receipt struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	WarehouseID int64      `json:"warehouse_id"`
	Status      Status     `json:"status"`
	Note        string     `json:"note,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Lines       []Line     `json:"lines,omitempty"`
}

// Delivery takes goods out of a warehouse.
type Delivery struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	WarehouseID int64      `json:"warehouse_id"`
	Status      Status     `json:"status"`
	Note        string     `json:"note,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Lines       []Line     `json:"lines,omitempty"`
}

// Transfer moves a single product between two warehouses.
type Transfer struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number"`
	ProductID         int64           `json:"product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	SourceWarehouseID int64           `json:"source_warehouse_id"`
	DestWarehouseID   int64           `json:"dest_warehouse_id"`
	Status            Status          `json:"status"`
	Note              string          `json:"note,omitempty"`
	CreatedBy         int64           `json:"created_by"`
	ValidatedAt       *time.Time      `json:"validated_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Adjustment re-bases a level to a counted quantity. SystemQuantity is the
// balance snapshot taken when the document was created; the posted movement
// carries counted minus that snapshot.
type Adjustment struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	ProductID       int64           `json:"product_id"`
	WarehouseID     int64           `json:"warehouse_id"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	SystemQuantity  decimal.Decimal `json:"system_quantity"`
	Status          Status          `json:"status"`
	Note            string          `json:"note,omitempty"`
	CreatedBy       int64           `json:"created_by"`
	ValidatedAt     *time.Time      `json:"validated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ListFilter narrows document listings.
type ListFilter struct {
	Status  Status
	Page    int
	PerPage int
}

var (
	// ErrNotFound indicates a missing document.
	ErrNotFound = errors.New("documents: not found")
	// ErrInvalidState occurs when an action violates the status workflow,
	// including any attempt to validate a document twice.
	ErrInvalidState = errors.New("documents: invalid state transition")
	// ErrEmptyLines rejects validating a receipt or delivery without lines.
	ErrEmptyLines = errors.New("documents: document has no lines")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("documents: invalid input")
)
