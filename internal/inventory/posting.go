package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxRepository exposes the stock operations available inside a transaction.
// The caller owns the transaction; every mutation of a stock level goes
// through GetLevelForUpdate first so concurrent postings serialise on the row.
type TxRepository interface {
	GetLevelForUpdate(ctx context.Context, productID, warehouseID int64) (StockLevel, error)
	UpsertLevel(ctx context.Context, level StockLevel) error
	InsertMovement(ctx context.Context, mv Movement) (int64, error)
}

// Apply posts a signed movement against the level row, creating the row when
// absent. The level and the ledger entry commit or roll back together with
// the caller's transaction.
func Apply(ctx context.Context, tx TxRepository, mv Movement) (StockLevel, error) {
	if mv.ProductID == 0 || mv.WarehouseID == 0 {
		return StockLevel{}, errors.New("inventory: product and warehouse required")
	}
	if mv.Quantity.IsZero() {
		return StockLevel{}, ErrInvalidQuantity
	}
	level, err := tx.GetLevelForUpdate(ctx, mv.ProductID, mv.WarehouseID)
	if err != nil && !errors.Is(err, ErrLevelNotFound) {
		return StockLevel{}, err
	}
	if errors.Is(err, ErrLevelNotFound) {
		level = StockLevel{ProductID: mv.ProductID, WarehouseID: mv.WarehouseID}
	}
	newQty := level.Quantity.Add(mv.Quantity)
	if newQty.IsNegative() {
		return StockLevel{}, fmt.Errorf("%w: product %d warehouse %d has %s, requested %s",
			ErrInsufficientStock, mv.ProductID, mv.WarehouseID, level.Quantity, mv.Quantity.Neg())
	}
	level.Quantity = newQty
	if err := tx.UpsertLevel(ctx, level); err != nil {
		return StockLevel{}, err
	}
	if mv.PostedAt.IsZero() {
		mv.PostedAt = time.Now().UTC()
	}
	if mv.RefID == uuid.Nil {
		mv.RefID = mv.Reference()
	}
	if _, err := tx.InsertMovement(ctx, mv); err != nil {
		return StockLevel{}, err
	}
	return level, nil
}

// Rebase forces the level to counted and records mv as the adjustment entry.
// mv.Quantity carries the delta captured when the adjustment document was
// created; a zero delta sets the level without writing a ledger row.
func Rebase(ctx context.Context, tx TxRepository, mv Movement, counted decimal.Decimal) (StockLevel, error) {
	if mv.ProductID == 0 || mv.WarehouseID == 0 {
		return StockLevel{}, errors.New("inventory: product and warehouse required")
	}
	if counted.IsNegative() {
		return StockLevel{}, fmt.Errorf("%w: counted quantity below zero", ErrInvalidQuantity)
	}
	level, err := tx.GetLevelForUpdate(ctx, mv.ProductID, mv.WarehouseID)
	if err != nil && !errors.Is(err, ErrLevelNotFound) {
		return StockLevel{}, err
	}
	if errors.Is(err, ErrLevelNotFound) {
		level = StockLevel{ProductID: mv.ProductID, WarehouseID: mv.WarehouseID}
	}
	level.Quantity = counted
	if err := tx.UpsertLevel(ctx, level); err != nil {
		return StockLevel{}, err
	}
	if !mv.Quantity.IsZero() {
		if mv.PostedAt.IsZero() {
			mv.PostedAt = time.Now().UTC()
		}
		if mv.RefID == uuid.Nil {
			mv.RefID = mv.Reference()
		}
		if _, err := tx.InsertMovement(ctx, mv); err != nil {
			return StockLevel{}, err
		}
	}
	return level, nil
}
