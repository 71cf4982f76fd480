package observability

import (
	"context"
	"errors"
	"time"

	"risklo/internal/domain"
	"risklo/internal/storage"
)

// InstrumentedStore records query metrics around an AnalysisStore.
// ErrNotFound and ErrDuplicateKey are outcomes, not query errors.
type InstrumentedStore struct {
	next     storage.AnalysisStore
	database string
	metrics  *Metrics
}

var _ storage.AnalysisStore = (*InstrumentedStore)(nil)

// InstrumentStore wraps next. database labels the backend (postgres, sqlite, ...).
func InstrumentStore(next storage.AnalysisStore, database string, m *Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, database: database, metrics: m}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateKey) {
		err = nil
	}
	s.metrics.RecordDBQuery(s.database, op, time.Since(start), err)
}

func (s *InstrumentedStore) Insert(ctx context.Context, r *domain.AnalysisRecord) error {
	start := time.Now()
	err := s.next.Insert(ctx, r)
	s.observe("insert", start, err)
	return err
}

func (s *InstrumentedStore) InsertBulk(ctx context.Context, records []*domain.AnalysisRecord) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, records)
	s.observe("insert_bulk", start, err)
	return err
}

func (s *InstrumentedStore) GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	start := time.Now()
	r, err := s.next.GetByID(ctx, id)
	s.observe("get_by_id", start, err)
	return r, err
}

func (s *InstrumentedStore) GetBySheet(ctx context.Context, sheetName string, limit int) ([]*domain.AnalysisRecord, error) {
	start := time.Now()
	rs, err := s.next.GetBySheet(ctx, sheetName, limit)
	s.observe("get_by_sheet", start, err)
	return rs, err
}

func (s *InstrumentedStore) GetByRunID(ctx context.Context, runID string) ([]*domain.AnalysisRecord, error) {
	start := time.Now()
	rs, err := s.next.GetByRunID(ctx, runID)
	s.observe("get_by_run_id", start, err)
	return rs, err
}

func (s *InstrumentedStore) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	start := time.Now()
	rs, err := s.next.ListRecent(ctx, limit)
	s.observe("list_recent", start, err)
	return rs, err
}
