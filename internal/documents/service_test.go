package documents

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stocklane/stocklane/internal/inventory"
	"github.com/stocklane/stocklane/internal/shared"
)

type pairKey struct {
	productID   int64
	warehouseID int64
}

// memState backs the in-memory repository. WithTx clones it before running
// the callback and restores the clone on error, mirroring a rollback.
type memState struct {
	receipts    map[int64]Receipt
	deliveries  map[int64]Delivery
	transfers   map[int64]Transfer
	adjustments map[int64]Adjustment
	lines       map[Kind][]Line
	levels      map[pairKey]inventory.StockLevel
	movements   []inventory.Movement
	idemKeys    map[string]bool
	seq         map[string]int
	nextID      int64
}

func newMemState() *memState {
	return &memState{
		receipts:    map[int64]Receipt{},
		deliveries:  map[int64]Delivery{},
		transfers:   map[int64]Transfer{},
		adjustments: map[int64]Adjustment{},
		lines:       map[Kind][]Line{},
		levels:      map[pairKey]inventory.StockLevel{},
		idemKeys:    map[string]bool{},
		seq:         map[string]int{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for id, doc := range s.receipts {
		out.receipts[id] = doc
	}
	for id, doc := range s.deliveries {
		out.deliveries[id] = doc
	}
	for id, doc := range s.transfers {
		out.transfers[id] = doc
	}
	for id, doc := range s.adjustments {
		out.adjustments[id] = doc
	}
	for kind, lines := range s.lines {
		out.lines[kind] = append([]Line(nil), lines...)
	}
	for key, level := range s.levels {
		out.levels[key] = level
	}
	out.movements = append([]inventory.Movement(nil), s.movements...)
	for key := range s.idemKeys {
		out.idemKeys[key] = true
	}
	for prefix, n := range s.seq {
		out.seq[prefix] = n
	}
	out.nextID = s.nextID
	return out
}

type memRepo struct {
	state *memState
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	backup := r.state.clone()
	if err := fn(ctx, &memTx{state: r.state}); err != nil {
		*r.state = *backup
		return err
	}
	return nil
}

func (r *memRepo) GetReceipt(_ context.Context, id int64) (Receipt, error) {
	doc, ok := r.state.receipts[id]
	if !ok {
		return Receipt{}, ErrNotFound
	}
	doc.Lines = linesFor(r.state, KindReceipt, id)
	return doc, nil
}

func (r *memRepo) GetDelivery(_ context.Context, id int64) (Delivery, error) {
	doc, ok := r.state.deliveries[id]
	if !ok {
		return Delivery{}, ErrNotFound
	}
	doc.Lines = linesFor(r.state, KindDelivery, id)
	return doc, nil
}

func (r *memRepo) GetTransfer(_ context.Context, id int64) (Transfer, error) {
	doc, ok := r.state.transfers[id]
	if !ok {
		return Transfer{}, ErrNotFound
	}
	return doc, nil
}

func (r *memRepo) GetAdjustment(_ context.Context, id int64) (Adjustment, error) {
	doc, ok := r.state.adjustments[id]
	if !ok {
		return Adjustment{}, ErrNotFound
	}
	return doc, nil
}

func (r *memRepo) ListReceipts(_ context.Context, filter ListFilter) ([]Receipt, int, error) {
	out := []Receipt{}
	for _, doc := range r.state.receipts {
		if filter.Status == "" || doc.Status == filter.Status {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) ListDeliveries(_ context.Context, filter ListFilter) ([]Delivery, int, error) {
	out := []Delivery{}
	for _, doc := range r.state.deliveries {
		if filter.Status == "" || doc.Status == filter.Status {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) ListTransfers(_ context.Context, filter ListFilter) ([]Transfer, int, error) {
	out := []Transfer{}
	for _, doc := range r.state.transfers {
		if filter.Status == "" || doc.Status == filter.Status {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) ListAdjustments(_ context.Context, filter ListFilter) ([]Adjustment, int, error) {
	out := []Adjustment{}
	for _, doc := range r.state.adjustments {
		if filter.Status == "" || doc.Status == filter.Status {
			out = append(out, doc)
		}
	}
	return out, len(out), nil
}

func linesFor(state *memState, kind Kind, documentID int64) []Line {
	out := []Line{}
	for _, line := range state.lines[kind] {
		if line.DocumentID == documentID {
			out = append(out, line)
		}
	}
	return out
}

type memTx struct {
	state *memState
}

func (t *memTx) NextNumber(_ context.Context, prefix string) (string, error) {
	t.state.seq[prefix]++
	return fmt.Sprintf("%s-%06d", prefix, t.state.seq[prefix]), nil
}

func (t *memTx) InsertReceipt(_ context.Context, doc Receipt) (int64, error) {
	t.state.nextID++
	doc.ID = t.state.nextID
	doc.CreatedAt = time.Now()
	t.state.receipts[doc.ID] = doc
	return doc.ID, nil
}

func (t *memTx) InsertDelivery(_ context.Context, doc Delivery) (int64, error) {
	t.state.nextID++
	doc.ID = t.state.nextID
	doc.CreatedAt = time.Now()
	t.state.deliveries[doc.ID] = doc
	return doc.ID, nil
}

func (t *memTx) InsertTransfer(_ context.Context, doc Transfer) (int64, error) {
	t.state.nextID++
	doc.ID = t.state.nextID
	doc.CreatedAt = time.Now()
	t.state.transfers[doc.ID] = doc
	return doc.ID, nil
}

func (t *memTx) InsertAdjustment(_ context.Context, doc Adjustment) (int64, error) {
	t.state.nextID++
	doc.ID = t.state.nextID
	doc.CreatedAt = time.Now()
	t.state.adjustments[doc.ID] = doc
	return doc.ID, nil
}

func (t *memTx) InsertLine(_ context.Context, kind Kind, line Line) error {
	t.state.nextID++
	line.ID = t.state.nextID
	t.state.lines[kind] = append(t.state.lines[kind], line)
	return nil
}

func (t *memTx) SetStatus(_ context.Context, kind Kind, id int64, from []Status, to Status) (bool, error) {
	return t.flip(kind, id, from, to, nil)
}

func (t *memTx) MarkValidated(_ context.Context, kind Kind, id int64, from []Status, at time.Time) (bool, error) {
	return t.flip(kind, id, from, StatusDone, &at)
}

func (t *memTx) flip(kind Kind, id int64, from []Status, to Status, at *time.Time) (bool, error) {
	matches := func(status Status) bool {
		for _, s := range from {
			if s == status {
				return true
			}
		}
		return false
	}
	switch kind {
	case KindReceipt:
		doc, ok := t.state.receipts[id]
		if !ok || !matches(doc.Status) {
			return false, nil
		}
		doc.Status, doc.ValidatedAt = to, at
		t.state.receipts[id] = doc
	case KindDelivery:
		doc, ok := t.state.deliveries[id]
		if !ok || !matches(doc.Status) {
			return false, nil
		}
		doc.Status, doc.ValidatedAt = to, at
		t.state.deliveries[id] = doc
	case KindTransfer:
		doc, ok := t.state.transfers[id]
		if !ok || !matches(doc.Status) {
			return false, nil
		}
		doc.Status, doc.ValidatedAt = to, at
		t.state.transfers[id] = doc
	case KindAdjustment:
		doc, ok := t.state.adjustments[id]
		if !ok || !matches(doc.Status) {
			return false, nil
		}
		doc.Status, doc.ValidatedAt = to, at
		t.state.adjustments[id] = doc
	default:
		return false, fmt.Errorf("unknown kind %q", kind)
	}
	return true, nil
}

func (t *memTx) ClaimIdempotencyKey(_ context.Context, key string) error {
	if t.state.idemKeys[key] {
		return shared.ErrIdempotencyConflict
	}
	t.state.idemKeys[key] = true
	return nil
}

func (t *memTx) Stock() inventory.TxRepository {
	return &memStockTx{state: t.state}
}

type memStockTx struct {
	state *memState
}

func (t *memStockTx) GetLevelForUpdate(_ context.Context, productID, warehouseID int64) (inventory.StockLevel, error) {
	level, ok := t.state.levels[pairKey{productID, warehouseID}]
	if !ok {
		return inventory.StockLevel{}, inventory.ErrLevelNotFound
	}
	return level, nil
}

func (t *memStockTx) UpsertLevel(_ context.Context, level inventory.StockLevel) error {
	level.UpdatedAt = time.Now()
	t.state.levels[pairKey{level.ProductID, level.WarehouseID}] = level
	return nil
}

// InsertMovement enforces the ref_id UNIQUE constraint the real table has.
func (t *memStockTx) InsertMovement(_ context.Context, mv inventory.Movement) (int64, error) {
	for _, existing := range t.state.movements {
		if existing.RefID == mv.RefID {
			return 0, fmt.Errorf("duplicate key value violates unique constraint: ref_id %s", mv.RefID)
		}
	}
	t.state.nextID++
	mv.ID = t.state.nextID
	t.state.movements = append(t.state.movements, mv)
	return mv.ID, nil
}

type memAudit struct {
	logs []shared.AuditLog
}

func (a *memAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type memMetrics struct {
	movements map[string]int
	validated map[string]int
}

func (m *memMetrics) MovementPosted(kind string) {
	m.movements[kind]++
}

func (m *memMetrics) DocumentValidated(kind string) {
	m.validated[kind]++
}

type memInvalidator struct {
	calls int
}

func (i *memInvalidator) InvalidateCache(context.Context) error {
	i.calls++
	return nil
}

type fixture struct {
	service *Service
	state   *memState
	audit   *memAudit
	metrics *memMetrics
	stock   *memInvalidator
}

func newFixture() *fixture {
	state := newMemState()
	f := &fixture{
		state:   state,
		audit:   &memAudit{},
		metrics: &memMetrics{movements: map[string]int{}, validated: map[string]int{}},
		stock:   &memInvalidator{},
	}
	f.service = NewService(slog.Default(), &memRepo{state: state}, f.audit, f.metrics, f.stock)
	return f
}

func (f *fixture) level(t *testing.T, productID, warehouseID int64) decimal.Decimal {
	t.Helper()
	return f.state.levels[pairKey{productID, warehouseID}].Quantity
}

func (f *fixture) ledgerSum(productID, warehouseID int64) decimal.Decimal {
	sum := decimal.Zero
	for _, mv := range f.state.movements {
		if mv.ProductID == productID && mv.WarehouseID == warehouseID {
			sum = sum.Add(mv.Quantity)
		}
	}
	return sum
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const (
	productX1 = int64(1)
	whMain    = int64(1)
	whSec     = int64(2)
)

func TestDocumentWorkflow(t *testing.T) {
	f := newFixture()
	ctx := shared.ContextWithActor(context.Background(), 7)

	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("10")}},
	})
	require.NoError(t, err)
	require.Equal(t, "RCP-000001", receipt.Number)
	require.Equal(t, StatusDraft, receipt.Status)

	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))
	require.True(t, f.level(t, productX1, whMain).Equal(qty("10")))

	delivery, err := f.service.CreateDelivery(ctx, CreateDeliveryInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("4")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindDelivery, delivery.ID))
	require.True(t, f.level(t, productX1, whMain).Equal(qty("6")))

	transfer, err := f.service.CreateTransfer(ctx, CreateTransferInput{
		ProductID:         productX1,
		Quantity:          qty("6"),
		SourceWarehouseID: whMain,
		DestWarehouseID:   whSec,
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindTransfer, transfer.ID))
	require.True(t, f.level(t, productX1, whMain).IsZero())
	require.True(t, f.level(t, productX1, whSec).Equal(qty("6")))

	adjustment, err := f.service.CreateAdjustment(ctx, CreateAdjustmentInput{
		ProductID:       productX1,
		WarehouseID:     whSec,
		CountedQuantity: qty("2"),
	})
	require.NoError(t, err)
	require.True(t, adjustment.SystemQuantity.Equal(qty("6")))

	require.NoError(t, f.service.Validate(ctx, KindAdjustment, adjustment.ID))
	require.True(t, f.level(t, productX1, whSec).Equal(qty("2")))

	// The last movement is the -4 adjustment entry.
	last := f.state.movements[len(f.state.movements)-1]
	require.Equal(t, inventory.MovementAdjustment, last.Kind)
	require.True(t, last.Quantity.Equal(qty("-4")))
	require.Equal(t, int64(7), last.ActorID)

	// Ledger sums match the stored levels for both warehouses.
	require.True(t, f.ledgerSum(productX1, whMain).Equal(f.level(t, productX1, whMain)))
	require.True(t, f.ledgerSum(productX1, whSec).Equal(f.level(t, productX1, whSec)))

	require.Equal(t, 1, f.metrics.validated[string(KindReceipt)])
	require.Equal(t, 1, f.metrics.movements[string(inventory.MovementTransferOut)])
	require.Equal(t, 1, f.metrics.movements[string(inventory.MovementTransferIn)])
	require.Equal(t, 4, f.stock.calls)
	require.NotEmpty(t, f.audit.logs)
}

func TestValidateDeliveryInsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("3")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))

	delivery, err := f.service.CreateDelivery(ctx, CreateDeliveryInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("5")}},
	})
	require.NoError(t, err)

	err = f.service.Validate(ctx, KindDelivery, delivery.ID)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	// Nothing changed: level intact, no extra ledger row, document pending.
	require.True(t, f.level(t, productX1, whMain).Equal(qty("3")))
	require.Len(t, f.state.movements, 1)
	reloaded, err := f.service.GetDelivery(ctx, delivery.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, reloaded.Status)

	// The key claim rolled back with the transaction, so fixing the stock
	// allows a retry.
	require.Empty(t, f.state.idemKeys)
	top, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("2")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindReceipt, top.ID))
	require.NoError(t, f.service.Validate(ctx, KindDelivery, delivery.ID))
	require.True(t, f.level(t, productX1, whMain).IsZero())
}

func TestValidateTwiceRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("10")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))

	err = f.service.Validate(ctx, KindReceipt, receipt.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	require.True(t, f.level(t, productX1, whMain).Equal(qty("10")))
	require.Len(t, f.state.movements, 1)
}

func TestValidateRepeatedProductLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Two lines for the same product are valid input; each must land as its
	// own ledger row with its own reference.
	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines: []LineInput{
			{ProductID: productX1, Quantity: qty("2")},
			{ProductID: productX1, Quantity: qty("3")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))

	require.True(t, f.level(t, productX1, whMain).Equal(qty("5")))
	require.Len(t, f.state.movements, 2)
	require.NotEqual(t, f.state.movements[0].RefID, f.state.movements[1].RefID)

	delivery, err := f.service.CreateDelivery(ctx, CreateDeliveryInput{
		WarehouseID: whMain,
		Lines: []LineInput{
			{ProductID: productX1, Quantity: qty("1")},
			{ProductID: productX1, Quantity: qty("1")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindDelivery, delivery.ID))
	require.True(t, f.level(t, productX1, whMain).Equal(qty("3")))
	require.Len(t, f.state.movements, 4)
}

func TestValidateEmptyLinesRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{WarehouseID: whMain})
	require.NoError(t, err)

	err = f.service.Validate(ctx, KindReceipt, receipt.ID)
	require.ErrorIs(t, err, ErrEmptyLines)
	require.Empty(t, f.state.movements)
}

func TestCancelBlocksValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	delivery, err := f.service.CreateDelivery(ctx, CreateDeliveryInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("1")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Cancel(ctx, KindDelivery, delivery.ID))

	err = f.service.Validate(ctx, KindDelivery, delivery.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	// A done document cannot be canceled either.
	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("1")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))
	require.ErrorIs(t, f.service.Cancel(ctx, KindReceipt, receipt.ID), ErrInvalidState)
}

func TestWaitingReadySteps(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("5")}},
	})
	require.NoError(t, err)

	// Ready before waiting is out of order.
	require.ErrorIs(t, f.service.MarkReady(ctx, KindReceipt, receipt.ID), ErrInvalidState)

	require.NoError(t, f.service.MarkWaiting(ctx, KindReceipt, receipt.ID))
	require.NoError(t, f.service.MarkReady(ctx, KindReceipt, receipt.ID))
	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))

	// Transfers walk the same steps.
	transfer, err := f.service.CreateTransfer(ctx, CreateTransferInput{
		ProductID:         productX1,
		Quantity:          qty("1"),
		SourceWarehouseID: whMain,
		DestWarehouseID:   whSec,
	})
	require.NoError(t, err)
	require.NoError(t, f.service.MarkWaiting(ctx, KindTransfer, transfer.ID))
	require.NoError(t, f.service.MarkReady(ctx, KindTransfer, transfer.ID))
	require.NoError(t, f.service.Validate(ctx, KindTransfer, transfer.ID))

	// Adjustments validate straight from draft.
	adjustment, err := f.service.CreateAdjustment(ctx, CreateAdjustmentInput{
		ProductID:       productX1,
		WarehouseID:     whMain,
		CountedQuantity: qty("4"),
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.service.MarkWaiting(ctx, KindAdjustment, adjustment.ID), ErrValidation)
}

func TestAdjustmentZeroDelta(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	receipt, err := f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("5")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindReceipt, receipt.ID))

	adjustment, err := f.service.CreateAdjustment(ctx, CreateAdjustmentInput{
		ProductID:       productX1,
		WarehouseID:     whMain,
		CountedQuantity: qty("5"),
	})
	require.NoError(t, err)
	require.NoError(t, f.service.Validate(ctx, KindAdjustment, adjustment.ID))

	// Count confirmed the balance: level untouched, no ledger row added.
	require.True(t, f.level(t, productX1, whMain).Equal(qty("5")))
	require.Len(t, f.state.movements, 1)

	reloaded, err := f.service.GetAdjustment(ctx, adjustment.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDone, reloaded.Status)
}

func TestAdjustmentOnEmptyLevel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	adjustment, err := f.service.CreateAdjustment(ctx, CreateAdjustmentInput{
		ProductID:       productX1,
		WarehouseID:     whSec,
		CountedQuantity: qty("7"),
	})
	require.NoError(t, err)
	require.True(t, adjustment.SystemQuantity.IsZero())

	require.NoError(t, f.service.Validate(ctx, KindAdjustment, adjustment.ID))
	require.True(t, f.level(t, productX1, whSec).Equal(qty("7")))
	require.Len(t, f.state.movements, 1)
	require.True(t, f.state.movements[0].Quantity.Equal(qty("7")))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.CreateTransfer(ctx, CreateTransferInput{
		ProductID:         productX1,
		Quantity:          qty("1"),
		SourceWarehouseID: whMain,
		DestWarehouseID:   whMain,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.service.CreateTransfer(ctx, CreateTransferInput{
		ProductID:         productX1,
		Quantity:          qty("-2"),
		SourceWarehouseID: whMain,
		DestWarehouseID:   whSec,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.service.CreateAdjustment(ctx, CreateAdjustmentInput{
		ProductID:       productX1,
		WarehouseID:     whMain,
		CountedQuantity: qty("-1"),
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.service.CreateReceipt(ctx, CreateReceiptInput{
		WarehouseID: whMain,
		Lines:       []LineInput{{ProductID: productX1, Quantity: qty("0")}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestNumbersAreSequentialPerKind(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.service.CreateReceipt(ctx, CreateReceiptInput{WarehouseID: whMain})
	require.NoError(t, err)
	second, err := f.service.CreateReceipt(ctx, CreateReceiptInput{WarehouseID: whMain})
	require.NoError(t, err)
	transfer, err := f.service.CreateTransfer(ctx, CreateTransferInput{
		ProductID:         productX1,
		Quantity:          qty("1"),
		SourceWarehouseID: whMain,
		DestWarehouseID:   whSec,
	})
	require.NoError(t, err)

	require.Equal(t, "RCP-000001", first.Number)
	require.Equal(t, "RCP-000002", second.Number)
	require.Equal(t, "TRF-000001", transfer.Number)
}
