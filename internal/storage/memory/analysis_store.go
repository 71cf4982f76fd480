package memory

import (
	"context"
	"sort"
	"sync"

	"risklo/internal/domain"
	"risklo/internal/storage"
)

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalysisRecord // keyed by id
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		data: make(map[string]*domain.AnalysisRecord),
	}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *AnalysisStore) Insert(_ context.Context, r *domain.AnalysisRecord) error {
	if err := storage.ValidateRecord(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ID] = &copy
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *AnalysisStore) InsertBulk(_ context.Context, records []*domain.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := storage.ValidateRecord(r); err != nil {
			return err
		}
		if _, exists := s.data[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ID] = struct{}{}
	}

	for _, r := range records {
		copy := *r
		s.data[r.ID] = &copy
	}
	return nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// GetBySheet retrieves up to limit records for a sheet, newest first.
func (s *AnalysisStore) GetBySheet(_ context.Context, sheetName string, limit int) ([]*domain.AnalysisRecord, error) {
	return s.collect(func(r *domain.AnalysisRecord) bool { return r.SheetName == sheetName }, newestFirst, limit), nil
}

// GetByRunID retrieves all records of a run, oldest first.
func (s *AnalysisStore) GetByRunID(_ context.Context, runID string) ([]*domain.AnalysisRecord, error) {
	return s.collect(func(r *domain.AnalysisRecord) bool { return r.RunID == runID }, oldestFirst, 0), nil
}

// ListRecent retrieves up to limit records, newest first.
func (s *AnalysisStore) ListRecent(_ context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	return s.collect(func(*domain.AnalysisRecord) bool { return true }, newestFirst, limit), nil
}

func (s *AnalysisStore) collect(match func(*domain.AnalysisRecord) bool, less func(a, b *domain.AnalysisRecord) bool, limit int) []*domain.AnalysisRecord {
	s.mu.RLock()
	var result []*domain.AnalysisRecord
	for _, r := range s.data {
		if match(r) {
			copy := *r
			result = append(result, &copy)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func oldestFirst(a, b *domain.AnalysisRecord) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.ID < b.ID
}

func newestFirst(a, b *domain.AnalysisRecord) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID < b.ID
}
