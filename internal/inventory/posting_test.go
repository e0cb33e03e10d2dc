package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	levels    map[[2]int64]StockLevel
	movements []Movement
}

func newStubTx() *stubTx {
	return &stubTx{levels: map[[2]int64]StockLevel{}}
}

func (s *stubTx) GetLevelForUpdate(_ context.Context, productID, warehouseID int64) (StockLevel, error) {
	level, ok := s.levels[[2]int64{productID, warehouseID}]
	if !ok {
		return StockLevel{}, ErrLevelNotFound
	}
	return level, nil
}

func (s *stubTx) UpsertLevel(_ context.Context, level StockLevel) error {
	s.levels[[2]int64{level.ProductID, level.WarehouseID}] = level
	return nil
}

func (s *stubTx) InsertMovement(_ context.Context, mv Movement) (int64, error) {
	s.movements = append(s.movements, mv)
	return int64(len(s.movements)), nil
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyCreatesLevel(t *testing.T) {
	tx := newStubTx()

	level, err := Apply(context.Background(), tx, Movement{
		ProductID:   1,
		WarehouseID: 1,
		Quantity:    qty("10"),
		Kind:        MovementReceipt,
	})
	require.NoError(t, err)
	require.True(t, level.Quantity.Equal(qty("10")))
	require.Len(t, tx.movements, 1)
	require.False(t, tx.movements[0].PostedAt.IsZero())
	require.Equal(t, tx.movements[0].Reference(), tx.movements[0].RefID)
}

func TestMovementReferenceIsStable(t *testing.T) {
	mv := Movement{DocKind: "receipt", DocID: 7, LineID: 11, Kind: MovementReceipt, ProductID: 1, WarehouseID: 1}
	require.Equal(t, mv.Reference(), mv.Reference())
	require.NotEqual(t, mv.Reference(), Movement{DocKind: "receipt", DocID: 8, LineID: 11, Kind: MovementReceipt, ProductID: 1, WarehouseID: 1}.Reference())

	// Two lines for the same product on one document must not collide.
	other := mv
	other.LineID = 12
	require.NotEqual(t, mv.Reference(), other.Reference())
}

func TestApplyRejectsNegativeBalance(t *testing.T) {
	tx := newStubTx()
	require.NoError(t, tx.UpsertLevel(context.Background(), StockLevel{ProductID: 1, WarehouseID: 1, Quantity: qty("3")}))

	_, err := Apply(context.Background(), tx, Movement{
		ProductID:   1,
		WarehouseID: 1,
		Quantity:    qty("-5"),
		Kind:        MovementDelivery,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, tx.levels[[2]int64{1, 1}].Quantity.Equal(qty("3")))
	require.Empty(t, tx.movements)
}

func TestApplyAllowsDrainToZero(t *testing.T) {
	tx := newStubTx()
	require.NoError(t, tx.UpsertLevel(context.Background(), StockLevel{ProductID: 1, WarehouseID: 1, Quantity: qty("5")}))

	level, err := Apply(context.Background(), tx, Movement{
		ProductID:   1,
		WarehouseID: 1,
		Quantity:    qty("-5"),
		Kind:        MovementDelivery,
	})
	require.NoError(t, err)
	require.True(t, level.Quantity.IsZero())
}

func TestApplyRejectsZeroQuantity(t *testing.T) {
	_, err := Apply(context.Background(), newStubTx(), Movement{ProductID: 1, WarehouseID: 1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRebaseSetsCountedQuantity(t *testing.T) {
	tx := newStubTx()
	require.NoError(t, tx.UpsertLevel(context.Background(), StockLevel{ProductID: 1, WarehouseID: 1, Quantity: qty("6")}))

	level, err := Rebase(context.Background(), tx, Movement{
		ProductID:   1,
		WarehouseID: 1,
		Quantity:    qty("-4"),
		Kind:        MovementAdjustment,
	}, qty("2"))
	require.NoError(t, err)
	require.True(t, level.Quantity.Equal(qty("2")))
	require.Len(t, tx.movements, 1)
	require.True(t, tx.movements[0].Quantity.Equal(qty("-4")))
}

func TestRebaseZeroDeltaSkipsLedger(t *testing.T) {
	tx := newStubTx()
	require.NoError(t, tx.UpsertLevel(context.Background(), StockLevel{ProductID: 1, WarehouseID: 1, Quantity: qty("6")}))

	level, err := Rebase(context.Background(), tx, Movement{
		ProductID:   1,
		WarehouseID: 1,
		Kind:        MovementAdjustment,
	}, qty("6"))
	require.NoError(t, err)
	require.True(t, level.Quantity.Equal(qty("6")))
	require.Empty(t, tx.movements)
}

func TestRebaseRejectsNegativeCount(t *testing.T) {
	_, err := Rebase(context.Background(), newStubTx(), Movement{ProductID: 1, WarehouseID: 1}, qty("-1"))
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
