package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stocklane/stocklane/internal/inventory"
)

type stubReconciler struct {
	rows []inventory.ReconciliationRow
	err  error
}

func (s *stubReconciler) Reconcile(context.Context) ([]inventory.ReconciliationRow, error) {
	return s.rows, s.err
}

func TestStockReconcileJobHandle(t *testing.T) {
	stub := &stubReconciler{rows: []inventory.ReconciliationRow{{
		ProductID:   1,
		WarehouseID: 2,
		LevelQty:    decimal.NewFromInt(5),
		LedgerQty:   decimal.NewFromInt(3),
		Drift:       decimal.NewFromInt(2),
	}}}
	job := NewStockReconcileJob(stub, nil, slog.Default())

	task, err := NewStockReconcileTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestStockReconcileJobPropagatesErrors(t *testing.T) {
	stub := &stubReconciler{err: errors.New("boom")}
	job := NewStockReconcileJob(stub, nil, slog.Default())

	task, err := NewStockReconcileTask(time.Now())
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

type stubPruner struct {
	olderThan time.Duration
}

func (s *stubPruner) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.olderThan = olderThan
	return nil
}

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	pruner := &stubPruner{}
	job := NewIdempotencyCleanupJob(pruner, slog.Default())

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 7*24*time.Hour, pruner.olderThan)
}
