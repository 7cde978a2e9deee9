package memory

import (
	"context"
	"sort"
	"sync"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/storage"
)

// ItemStore is an in-memory implementation of storage.ItemStore.
type ItemStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.Item // keyed by item id
}

// NewItemStore creates a new in-memory item store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		data: make(map[int64]*domain.Item),
	}
}

// UpsertBulk inserts or replaces items by id. Validates the whole batch first.
func (s *ItemStore) UpsertBulk(_ context.Context, items []*domain.Item) error {
	for _, it := range items {
		if it == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		s.data[it.ID] = copyItem(it)
	}
	return nil
}

// GetByID retrieves an item by id. Returns ErrNotFound if not exists.
func (s *ItemStore) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyItem(it), nil
}

// GetAll retrieves all items, ordered by id ASC.
func (s *ItemStore) GetAll(_ context.Context) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Item, 0, len(s.data))
	for _, it := range s.data {
		result = append(result, copyItem(it))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// copyItem returns a deep copy so callers cannot mutate stored state.
func copyItem(it *domain.Item) *domain.Item {
	c := *it
	c.AvgHighPrice = copyInt(it.AvgHighPrice)
	c.AvgLowPrice = copyInt(it.AvgLowPrice)
	return &c
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Verify interface compliance at compile time.
var _ storage.ItemStore = (*ItemStore)(nil)
