package storage

import (
	"context"

	"risklo/internal/domain"
)

// AnalysisStore provides access to analysis history.
// Records are append-only.
type AnalysisStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, r *domain.AnalysisRecord) error

	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.AnalysisRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error)

	// GetBySheet retrieves up to limit records for a sheet, newest first.
	GetBySheet(ctx context.Context, sheetName string, limit int) ([]*domain.AnalysisRecord, error)

	// GetByRunID retrieves all records of a bulk run, ordered by created_at ASC, id ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.AnalysisRecord, error)

	// ListRecent retrieves up to limit records across all sheets, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error)
}

// ValidateRecord checks the fields every store requires.
func ValidateRecord(r *domain.AnalysisRecord) error {
	if r == nil || r.ID == "" || r.SheetName == "" {
		return ErrInvalidInput
	}
	return nil
}
