package documents

import "github.com/shopspring/decimal"

type lineRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

type createReceiptRequest struct {
	WarehouseID int64         `json:"warehouse_id" validate:"required,gt=0"`
	Note        string        `json:"note" validate:"omitempty,max=500"`
	Lines       []lineRequest `json:"lines" validate:"omitempty,dive"`
}

type createDeliveryRequest struct {
	WarehouseID int64         `json:"warehouse_id" validate:"required,gt=0"`
	Note        string        `json:"note" validate:"omitempty,max=500"`
	Lines       []lineRequest `json:"lines" validate:"omitempty,dive"`
}

type createTransferRequest struct {
	ProductID         int64           `json:"product_id" validate:"required,gt=0"`
	Quantity          decimal.Decimal `json:"quantity" validate:"required"`
	SourceWarehouseID int64           `json:"source_warehouse_id" validate:"required,gt=0"`
	DestWarehouseID   int64           `json:"dest_warehouse_id" validate:"required,gt=0"`
	Note              string          `json:"note" validate:"omitempty,max=500"`
}

// counted_quantity has no required tag on purpose: counting zero pieces is a
// legitimate adjustment.
type createAdjustmentRequest struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	WarehouseID     int64           `json:"warehouse_id" validate:"required,gt=0"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Note            string          `json:"note" validate:"omitempty,max=500"`
}

func toLineInputs(lines []lineRequest) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}
