package lookup

import (
	"context"
	"sync"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu        sync.RWMutex
	histories map[domain.Entity][]domain.HistoryRecord
	classes   []domain.SalesClassRecord
}

// NewMemoryStore creates a new in-memory lookup store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{histories: make(map[domain.Entity][]domain.HistoryRecord)}
}

func (s *MemoryStore) SaveHistory(ctx context.Context, entity domain.Entity, records []domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep a copy to prevent external modification
	s.histories[entity] = append([]domain.HistoryRecord(nil), records...)
	return nil
}

func (s *MemoryStore) LoadHistory(ctx context.Context, entity domain.Entity) (domain.HistoryIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.histories[entity]
	if !ok {
		return nil, errors.NewNotFoundError(string(entity) + " history")
	}
	return domain.NewHistoryIndex(records), nil
}

func (s *MemoryStore) SaveSalesClasses(ctx context.Context, records []domain.SalesClassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classes = append([]domain.SalesClassRecord{}, records...)
	return nil
}

func (s *MemoryStore) LoadSalesClasses(ctx context.Context) (domain.SalesClassIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.classes == nil {
		return nil, errors.NewNotFoundError("sales classes")
	}
	return domain.NewSalesClassIndex(s.classes), nil
}

// Close releases nothing.
func (s *MemoryStore) Close() error { return nil }
