package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocklane/stocklane/internal/inventory"
	"github.com/stocklane/stocklane/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetReceipt(ctx context.Context, id int64) (Receipt, error)
	GetDelivery(ctx context.Context, id int64) (Delivery, error)
	GetTransfer(ctx context.Context, id int64) (Transfer, error)
	GetAdjustment(ctx context.Context, id int64) (Adjustment, error)
	ListReceipts(ctx context.Context, filter ListFilter) ([]Receipt, int, error)
	ListDeliveries(ctx context.Context, filter ListFilter) ([]Delivery, int, error)
	ListTransfers(ctx context.Context, filter ListFilter) ([]Transfer, int, error)
	ListAdjustments(ctx context.Context, filter ListFilter) ([]Adjustment, int, error)
}

// AuditPort records who did what.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts posted movements and validated documents.
type MetricsPort interface {
	MovementPosted(kind string)
	DocumentValidated(kind string)
}

// StockInvalidator drops cached stock reads after a posting.
type StockInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Service drives the document lifecycle. Validation is the only operation
// that touches stock, and it runs entirely inside one database transaction.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	audit   AuditPort
	metrics MetricsPort
	stock   StockInvalidator
}

// NewService wires the document service.
func NewService(logger *slog.Logger, repo RepositoryPort, audit AuditPort, metrics MetricsPort, stock StockInvalidator) *Service {
	return &Service{logger: logger, repo: repo, audit: audit, metrics: metrics, stock: stock}
}

// LineInput is a product/quantity pair on a create request.
type LineInput struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// CreateReceiptInput creates a draft receipt. Lines may be empty; a receipt
// without lines can be filled later but never validated.
type CreateReceiptInput struct {
	WarehouseID int64
	Note        string
	Lines       []LineInput
}

// CreateDeliveryInput creates a draft delivery.
type CreateDeliveryInput struct {
	WarehouseID int64
	Note        string
	Lines       []LineInput
}

// CreateTransferInput creates a draft transfer between two warehouses.
type CreateTransferInput struct {
	ProductID         int64
	Quantity          decimal.Decimal
	SourceWarehouseID int64
	DestWarehouseID   int64
	Note              string
}

// CreateAdjustmentInput creates a draft adjustment toward a counted quantity.
type CreateAdjustmentInput struct {
	ProductID       int64
	WarehouseID     int64
	CountedQuantity decimal.Decimal
	Note            string
}

// CreateReceipt allocates a number and stores a draft receipt with its lines.
func (s *Service) CreateReceipt(ctx context.Context, input CreateReceiptInput) (Receipt, error) {
	if input.WarehouseID == 0 {
		return Receipt{}, fmt.Errorf("%w: warehouse required", ErrValidation)
	}
	if err := checkLines(input.Lines); err != nil {
		return Receipt{}, err
	}
	doc := Receipt{
		WarehouseID: input.WarehouseID,
		Status:      StatusDraft,
		Note:        input.Note,
		CreatedBy:   shared.ActorFromContext(ctx),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, KindReceipt.Prefix())
		if err != nil {
			return err
		}
		doc.Number = number
		doc.ID, err = tx.InsertReceipt(ctx, doc)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, KindReceipt, doc.ID, input.Lines)
	})
	if err != nil {
		return Receipt{}, err
	}
	s.logger.Info("receipt created", slog.String("number", doc.Number), slog.Int64("warehouse_id", doc.WarehouseID))
	return s.repo.GetReceipt(ctx, doc.ID)
}

// CreateDelivery allocates a number and stores a draft delivery with its lines.
func (s *Service) CreateDelivery(ctx context.Context, input CreateDeliveryInput) (Delivery, error) {
	if input.WarehouseID == 0 {
		return Delivery{}, fmt.Errorf("%w: warehouse required", ErrValidation)
	}
	if err := checkLines(input.Lines); err != nil {
		return Delivery{}, err
	}
	doc := Delivery{
		WarehouseID: input.WarehouseID,
		Status:      StatusDraft,
		Note:        input.Note,
		CreatedBy:   shared.ActorFromContext(ctx),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, KindDelivery.Prefix())
		if err != nil {
			return err
		}
		doc.Number = number
		doc.ID, err = tx.InsertDelivery(ctx, doc)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, KindDelivery, doc.ID, input.Lines)
	})
	if err != nil {
		return Delivery{}, err
	}
	s.logger.Info("delivery created", slog.String("number", doc.Number), slog.Int64("warehouse_id", doc.WarehouseID))
	return s.repo.GetDelivery(ctx, doc.ID)
}

// CreateTransfer allocates a number and stores a draft transfer.
func (s *Service) CreateTransfer(ctx context.Context, input CreateTransferInput) (Transfer, error) {
	if input.ProductID == 0 || input.SourceWarehouseID == 0 || input.DestWarehouseID == 0 {
		return Transfer{}, fmt.Errorf("%w: product and both warehouses required", ErrValidation)
	}
	if input.SourceWarehouseID == input.DestWarehouseID {
		return Transfer{}, fmt.Errorf("%w: source and destination warehouses must differ", ErrValidation)
	}
	if !input.Quantity.IsPositive() {
		return Transfer{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	doc := Transfer{
		ProductID:         input.ProductID,
		Quantity:          input.Quantity,
		SourceWarehouseID: input.SourceWarehouseID,
		DestWarehouseID:   input.DestWarehouseID,
		Status:            StatusDraft,
		Note:              input.Note,
		CreatedBy:         shared.ActorFromContext(ctx),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, KindTransfer.Prefix())
		if err != nil {
			return err
		}
		doc.Number = number
		doc.ID, err = tx.InsertTransfer(ctx, doc)
		return err
	})
	if err != nil {
		return Transfer{}, err
	}
	s.logger.Info("transfer created", slog.String("number", doc.Number), slog.Int64("product_id", doc.ProductID))
	return s.repo.GetTransfer(ctx, doc.ID)
}

// CreateAdjustment stores a draft adjustment. The current balance is
// snapshotted under the row lock so the recorded delta stays truthful even
// when postings race the count.
func (s *Service) CreateAdjustment(ctx context.Context, input CreateAdjustmentInput) (Adjustment, error) {
	if input.ProductID == 0 || input.WarehouseID == 0 {
		return Adjustment{}, fmt.Errorf("%w: product and warehouse required", ErrValidation)
	}
	if input.CountedQuantity.IsNegative() {
		return Adjustment{}, fmt.Errorf("%w: counted quantity cannot be negative", ErrValidation)
	}
	doc := Adjustment{
		ProductID:       input.ProductID,
		WarehouseID:     input.WarehouseID,
		CountedQuantity: input.CountedQuantity,
		Status:          StatusDraft,
		Note:            input.Note,
		CreatedBy:       shared.ActorFromContext(ctx),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.Stock().GetLevelForUpdate(ctx, input.ProductID, input.WarehouseID)
		if err != nil && !errors.Is(err, inventory.ErrLevelNotFound) {
			return err
		}
		doc.SystemQuantity = level.Quantity
		number, err := tx.NextNumber(ctx, KindAdjustment.Prefix())
		if err != nil {
			return err
		}
		doc.Number = number
		doc.ID, err = tx.InsertAdjustment(ctx, doc)
		return err
	})
	if err != nil {
		return Adjustment{}, err
	}
	s.logger.Info("adjustment created", slog.String("number", doc.Number),
		slog.String("counted", doc.CountedQuantity.String()), slog.String("system", doc.SystemQuantity.String()))
	return s.repo.GetAdjustment(ctx, doc.ID)
}

// Validate posts the document's stock effect and flips it to done. The status
// flip is a compare-and-swap inside the same transaction as the level updates
// and ledger inserts, so a document can take effect at most once and a
// failure leaves no partial effect.
func (s *Service) Validate(ctx context.Context, kind Kind, id int64) error {
	switch kind {
	case KindReceipt:
		return s.validateReceipt(ctx, id)
	case KindDelivery:
		return s.validateDelivery(ctx, id)
	case KindTransfer:
		return s.validateTransfer(ctx, id)
	case KindAdjustment:
		return s.validateAdjustment(ctx, id)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
}

func (s *Service) validateReceipt(ctx context.Context, id int64) error {
	doc, err := s.repo.GetReceipt(ctx, id)
	if err != nil {
		return err
	}
	if !doc.Status.Pending() {
		return fmt.Errorf("%w: receipt %s is %s", ErrInvalidState, doc.Number, doc.Status)
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%w: receipt %s", ErrEmptyLines, doc.Number)
	}
	actor := shared.ActorFromContext(ctx)
	return s.post(ctx, KindReceipt, doc.Number, func(ctx context.Context, tx TxRepository) error {
		if err := s.flipDone(ctx, tx, KindReceipt, id, pendingStatuses, doc.Number); err != nil {
			return err
		}
		for _, line := range doc.Lines {
			_, err := inventory.Apply(ctx, tx.Stock(), inventory.Movement{
				ProductID:   line.ProductID,
				WarehouseID: doc.WarehouseID,
				Quantity:    line.Quantity,
				Kind:        inventory.MovementReceipt,
				DocKind:     string(KindReceipt),
				DocID:       doc.ID,
				LineID:      line.ID,
				DocNumber:   doc.Number,
				ActorID:     actor,
			})
			if err != nil {
				return err
			}
			s.metrics.MovementPosted(string(inventory.MovementReceipt))
		}
		return nil
	}, map[string]any{"warehouse_id": doc.WarehouseID, "lines": len(doc.Lines)})
}

func (s *Service) validateDelivery(ctx context.Context, id int64) error {
	doc, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return err
	}
	if !doc.Status.Pending() {
		return fmt.Errorf("%w: delivery %s is %s", ErrInvalidState, doc.Number, doc.Status)
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("%w: delivery %s", ErrEmptyLines, doc.Number)
	}
	actor := shared.ActorFromContext(ctx)
	return s.post(ctx, KindDelivery, doc.Number, func(ctx context.Context, tx TxRepository) error {
		if err := s.flipDone(ctx, tx, KindDelivery, id, pendingStatuses, doc.Number); err != nil {
			return err
		}
		for _, line := range doc.Lines {
			_, err := inventory.Apply(ctx, tx.Stock(), inventory.Movement{
				ProductID:   line.ProductID,
				WarehouseID: doc.WarehouseID,
				Quantity:    line.Quantity.Neg(),
				Kind:        inventory.MovementDelivery,
				DocKind:     string(KindDelivery),
				DocID:       doc.ID,
				LineID:      line.ID,
				DocNumber:   doc.Number,
				ActorID:     actor,
			})
			if err != nil {
				return err
			}
			s.metrics.MovementPosted(string(inventory.MovementDelivery))
		}
		return nil
	}, map[string]any{"warehouse_id": doc.WarehouseID, "lines": len(doc.Lines)})
}

func (s *Service) validateTransfer(ctx context.Context, id int64) error {
	doc, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if !doc.Status.Pending() {
		return fmt.Errorf("%w: transfer %s is %s", ErrInvalidState, doc.Number, doc.Status)
	}
	actor := shared.ActorFromContext(ctx)
	return s.post(ctx, KindTransfer, doc.Number, func(ctx context.Context, tx TxRepository) error {
		if err := s.flipDone(ctx, tx, KindTransfer, id, pendingStatuses, doc.Number); err != nil {
			return err
		}
		// Outbound first: when the source lacks stock nothing is written.
		_, err := inventory.Apply(ctx, tx.Stock(), inventory.Movement{
			ProductID:   doc.ProductID,
			WarehouseID: doc.SourceWarehouseID,
			Quantity:    doc.Quantity.Neg(),
			Kind:        inventory.MovementTransferOut,
			DocKind:     string(KindTransfer),
			DocID:       doc.ID,
			DocNumber:   doc.Number,
			ActorID:     actor,
		})
		if err != nil {
			return err
		}
		s.metrics.MovementPosted(string(inventory.MovementTransferOut))
		_, err = inventory.Apply(ctx, tx.Stock(), inventory.Movement{
			ProductID:   doc.ProductID,
			WarehouseID: doc.DestWarehouseID,
			Quantity:    doc.Quantity,
			Kind:        inventory.MovementTransferIn,
			DocKind:     string(KindTransfer),
			DocID:       doc.ID,
			DocNumber:   doc.Number,
			ActorID:     actor,
		})
		if err != nil {
			return err
		}
		s.metrics.MovementPosted(string(inventory.MovementTransferIn))
		return nil
	}, map[string]any{
		"product_id":          doc.ProductID,
		"source_warehouse_id": doc.SourceWarehouseID,
		"dest_warehouse_id":   doc.DestWarehouseID,
		"quantity":            doc.Quantity.String(),
	})
}

func (s *Service) validateAdjustment(ctx context.Context, id int64) error {
	doc, err := s.repo.GetAdjustment(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status != StatusDraft {
		return fmt.Errorf("%w: adjustment %s is %s", ErrInvalidState, doc.Number, doc.Status)
	}
	actor := shared.ActorFromContext(ctx)
	delta := doc.CountedQuantity.Sub(doc.SystemQuantity)
	return s.post(ctx, KindAdjustment, doc.Number, func(ctx context.Context, tx TxRepository) error {
		if err := s.flipDone(ctx, tx, KindAdjustment, id, []Status{StatusDraft}, doc.Number); err != nil {
			return err
		}
		_, err := inventory.Rebase(ctx, tx.Stock(), inventory.Movement{
			ProductID:   doc.ProductID,
			WarehouseID: doc.WarehouseID,
			Quantity:    delta,
			Kind:        inventory.MovementAdjustment,
			DocKind:     string(KindAdjustment),
			DocID:       doc.ID,
			DocNumber:   doc.Number,
			ActorID:     actor,
		}, doc.CountedQuantity)
		if err != nil {
			return err
		}
		if !delta.IsZero() {
			s.metrics.MovementPosted(string(inventory.MovementAdjustment))
		}
		return nil
	}, map[string]any{
		"product_id":   doc.ProductID,
		"warehouse_id": doc.WarehouseID,
		"counted":      doc.CountedQuantity.String(),
		"delta":        delta.String(),
	})
}

// post wraps a validation body with the idempotency guard, transaction,
// audit record, metrics and cache invalidation shared by all kinds. The key
// is claimed inside the same transaction as the stock effect: a rollback or
// crash releases it with everything else, so a failed validation can always
// be retried.
func (s *Service) post(ctx context.Context, kind Kind, number string, fn func(context.Context, TxRepository) error, meta map[string]any) error {
	key := fmt.Sprintf("%s:%s", kind, number)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.ClaimIdempotencyKey(ctx, key); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return fmt.Errorf("%w: %s already validated", ErrInvalidState, number)
			}
			return err
		}
		return fn(ctx, tx)
	})
	if err != nil {
		return err
	}
	s.metrics.DocumentValidated(string(kind))
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   "document.validate",
		Entity:   string(kind),
		EntityID: number,
		Meta:     meta,
	}); err != nil {
		s.logger.Error("audit document validation", slog.String("number", number), slog.Any("error", err))
	}
	if err := s.stock.InvalidateCache(ctx); err != nil {
		s.logger.Warn("invalidate stock cache", slog.Any("error", err))
	}
	s.logger.Info("document validated", slog.String("kind", string(kind)), slog.String("number", number))
	return nil
}

func (s *Service) flipDone(ctx context.Context, tx TxRepository, kind Kind, id int64, from []Status, number string) error {
	ok, err := tx.MarkValidated(ctx, kind, id, from, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s changed state concurrently", ErrInvalidState, kind, number)
	}
	return nil
}

// MarkWaiting moves a draft receipt, delivery or transfer to waiting.
// Adjustments validate straight from draft and have no intermediate steps.
func (s *Service) MarkWaiting(ctx context.Context, kind Kind, id int64) error {
	return s.transition(ctx, kind, id, []Status{StatusDraft}, StatusWaiting)
}

// MarkReady moves a waiting receipt, delivery or transfer to ready.
func (s *Service) MarkReady(ctx context.Context, kind Kind, id int64) error {
	return s.transition(ctx, kind, id, []Status{StatusWaiting}, StatusReady)
}

// Cancel aborts any pending document. Done documents stay done; reversing a
// posted document takes a counter-document, not a cancel.
func (s *Service) Cancel(ctx context.Context, kind Kind, id int64) error {
	from := pendingStatuses
	if kind == KindAdjustment {
		from = []Status{StatusDraft}
	}
	return s.transition(ctx, kind, id, from, StatusCanceled)
}

func (s *Service) transition(ctx context.Context, kind Kind, id int64, from []Status, to Status) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
	if (to == StatusWaiting || to == StatusReady) && kind == KindAdjustment {
		return fmt.Errorf("%w: %s documents have no %s step", ErrValidation, kind, to)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.SetStatus(ctx, kind, id, from, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s %d cannot move to %s", ErrInvalidState, kind, id, to)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   "document." + string(to),
		Entity:   string(kind),
		EntityID: strconv.FormatInt(id, 10),
	}); err != nil {
		s.logger.Error("audit status change", slog.String("kind", string(kind)), slog.Int64("id", id), slog.Any("error", err))
	}
	return nil
}

// GetReceipt returns one receipt with lines.
func (s *Service) GetReceipt(ctx context.Context, id int64) (Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

// GetDelivery returns one delivery with lines.
func (s *Service) GetDelivery(ctx context.Context, id int64) (Delivery, error) {
	return s.repo.GetDelivery(ctx, id)
}

// GetTransfer returns one transfer.
func (s *Service) GetTransfer(ctx context.Context, id int64) (Transfer, error) {
	return s.repo.GetTransfer(ctx, id)
}

// GetAdjustment returns one adjustment.
func (s *Service) GetAdjustment(ctx context.Context, id int64) (Adjustment, error) {
	return s.repo.GetAdjustment(ctx, id)
}

// ListReceipts lists receipt headers.
func (s *Service) ListReceipts(ctx context.Context, filter ListFilter) ([]Receipt, int, error) {
	return s.repo.ListReceipts(ctx, filter)
}

// ListDeliveries lists delivery headers.
func (s *Service) ListDeliveries(ctx context.Context, filter ListFilter) ([]Delivery, int, error) {
	return s.repo.ListDeliveries(ctx, filter)
}

// ListTransfers lists transfer headers.
func (s *Service) ListTransfers(ctx context.Context, filter ListFilter) ([]Transfer, int, error) {
	return s.repo.ListTransfers(ctx, filter)
}

// ListAdjustments lists adjustment headers.
func (s *Service) ListAdjustments(ctx context.Context, filter ListFilter) ([]Adjustment, int, error) {
	return s.repo.ListAdjustments(ctx, filter)
}

func checkLines(lines []LineInput) error {
	for _, line := range lines {
		if line.ProductID == 0 {
			return fmt.Errorf("%w: line product required", ErrValidation)
		}
		if !line.Quantity.IsPositive() {
			return fmt.Errorf("%w: line quantity must be positive", ErrValidation)
		}
	}
	return nil
}

func insertLines(ctx context.Context, tx TxRepository, kind Kind, documentID int64, lines []LineInput) error {
	for _, line := range lines {
		if err := tx.InsertLine(ctx, kind, Line{DocumentID: documentID, ProductID: line.ProductID, Quantity: line.Quantity}); err != nil {
			return err
		}
	}
	return nil
}
