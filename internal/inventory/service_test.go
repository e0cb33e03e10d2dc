package inventory

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	levels        []StockLevel
	levelCalls    int
	lowRows       []LowStockRow
	lowCalls      int
	movements     []Movement
	reconcileRows []ReconciliationRow
}

func (m *mockRepo) ListLevels(context.Context, LevelFilter) ([]StockLevel, int, error) {
	m.levelCalls++
	return m.levels, len(m.levels), nil
}

func (m *mockRepo) ListMovements(context.Context, MovementFilter) ([]Movement, error) {
	return m.movements, nil
}

func (m *mockRepo) ListLowStock(context.Context, int) ([]LowStockRow, error) {
	m.lowCalls++
	return m.lowRows, nil
}

func (m *mockRepo) Reconcile(context.Context) ([]ReconciliationRow, error) {
	return m.reconcileRows, nil
}

func newTestService(t *testing.T, repo RepositoryPort) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute))
}

func TestLevelsCachesUntilInvalidated(t *testing.T) {
	repo := &mockRepo{levels: []StockLevel{{ProductID: 1, WarehouseID: 1, Quantity: decimal.NewFromInt(10)}}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	levels, total, err := svc.Levels(ctx, LevelFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(10)))
	require.Equal(t, 1, repo.levelCalls)

	// Second read is served from cache.
	_, _, err = svc.Levels(ctx, LevelFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.levelCalls)

	// A posting bumps the version and retires the cached payload.
	require.NoError(t, svc.InvalidateCache(ctx))
	_, _, err = svc.Levels(ctx, LevelFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, repo.levelCalls)
}

func TestLevelsFilterKeysAreDistinct(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, _, err := svc.Levels(ctx, LevelFilter{ProductID: 1})
	require.NoError(t, err)
	_, _, err = svc.Levels(ctx, LevelFilter{ProductID: 2})
	require.NoError(t, err)
	require.Equal(t, 2, repo.levelCalls)
}

func TestLowStockCaches(t *testing.T) {
	repo := &mockRepo{lowRows: []LowStockRow{{ProductID: 1}}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	rows, err := svc.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, repo.lowCalls)
}

func TestMovementsRequiresPair(t *testing.T) {
	svc := NewService(&mockRepo{}, nil)

	_, err := svc.Movements(context.Background(), MovementFilter{ProductID: 1})
	require.Error(t, err)

	_, err = svc.Movements(context.Background(), MovementFilter{ProductID: 1, WarehouseID: 1})
	require.NoError(t, err)
}

func TestReconcileBypassesCache(t *testing.T) {
	repo := &mockRepo{reconcileRows: []ReconciliationRow{{ProductID: 1, WarehouseID: 2}}}
	// nil cache: reconcile never touches Redis.
	svc := NewService(repo, nil)

	rows, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
