package inventory

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts the read side of the stock store.
type RepositoryPort interface {
	ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	ListLowStock(ctx context.Context, limit int) ([]LowStockRow, error)
	Reconcile(ctx context.Context) ([]ReconciliationRow, error)
}

// Service serves the stock read model. All writes happen through the
// document validator; this service only queries, optionally through the
// versioned cache.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

type levelsPayload struct {
	Levels []StockLevel `json:"levels"`
	Total  int          `json:"total"`
}

// Levels lists stock levels matching filter.
func (s *Service) Levels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error) {
	key, err := s.cache.BuildKey(ctx, keyLevels(filter)...)
	if err != nil {
		return nil, 0, err
	}
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var payload levelsPayload
		err := s.cache.FetchJSON(ctx, key, &payload, func(ctx context.Context) (interface{}, error) {
			levels, total, err := s.repo.ListLevels(ctx, filter)
			if err != nil {
				return nil, err
			}
			return levelsPayload{Levels: levels, Total: total}, nil
		})
		return payload, err
	})
	if err != nil {
		return nil, 0, err
	}
	payload := value.(levelsPayload)
	return payload.Levels, payload.Total, nil
}

// Movements lists ledger entries for a (product, warehouse) pair.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.ProductID == 0 || filter.WarehouseID == 0 {
		return nil, errors.New("inventory: product and warehouse required")
	}
	return s.repo.ListMovements(ctx, filter)
}

// LowStock lists products at or below their reorder level.
func (s *Service) LowStock(ctx context.Context, limit int) ([]LowStockRow, error) {
	key, err := s.cache.BuildKey(ctx, keyLowStock(limit)...)
	if err != nil {
		return nil, err
	}
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var rows []LowStockRow
		err := s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (interface{}, error) {
			return s.repo.ListLowStock(ctx, limit)
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	return value.([]LowStockRow), nil
}

// Reconcile reports pairs whose ledger sum disagrees with the stored level.
// Always reads the store directly; an integrity check through a cache would
// defeat its purpose.
func (s *Service) Reconcile(ctx context.Context) ([]ReconciliationRow, error) {
	return s.repo.Reconcile(ctx)
}

// InvalidateCache retires every cached stock payload.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
