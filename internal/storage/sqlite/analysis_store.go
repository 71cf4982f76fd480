package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"risklo/internal/domain"
	"risklo/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore on a local SQLite file.
type AnalysisStore struct {
	db *DB
}

// NewAnalysisStore creates a new AnalysisStore. The schema must already be migrated.
func NewAnalysisStore(db *DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

const insertAnalysisQuery = `
	INSERT INTO analyses (
		id, run_id, sheet_name, account_name,
		contract_type, contracts, account_size,
		blow_status, risk_level, risk_score,
		config, metrics, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectAnalysisColumns = `
	SELECT id, run_id, sheet_name, account_name, config, metrics, created_at
	FROM analyses
`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *AnalysisStore) Insert(ctx context.Context, r *domain.AnalysisRecord) error {
	return insert(ctx, s.db, r)
}

// InsertBulk adds multiple records in one transaction. Fails entire batch on any duplicate.
func (s *AnalysisStore) InsertBulk(ctx context.Context, records []*domain.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if err := insert(ctx, tx, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insert(ctx context.Context, ex execer, r *domain.AnalysisRecord) error {
	if err := storage.ValidateRecord(r); err != nil {
		return err
	}
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = ex.ExecContext(ctx, insertAnalysisQuery,
		r.ID, r.RunID, r.SheetName, r.AccountName,
		string(r.Config.ContractType), r.Config.Contracts, r.Config.AccountSize,
		string(r.Metrics.BlowAccountStatus), string(r.Metrics.RiskLevel), r.Metrics.RiskScore,
		string(cfg), string(metrics), r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, selectAnalysisColumns+` WHERE id = ?`, id)
	r, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return r, nil
}

// GetBySheet retrieves up to limit records for a sheet, newest first.
func (s *AnalysisStore) GetBySheet(ctx context.Context, sheetName string, limit int) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+`
		WHERE sheet_name = ?
		ORDER BY created_at DESC, id ASC
		LIMIT ?`, sheetName, limitArg(limit))
}

// GetByRunID retrieves all records of a run, oldest first.
func (s *AnalysisStore) GetByRunID(ctx context.Context, runID string) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+`
		WHERE run_id = ?
		ORDER BY created_at ASC, id ASC`, runID)
}

// ListRecent retrieves up to limit records, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+`
		ORDER BY created_at DESC, id ASC
		LIMIT ?`, limitArg(limit))
}

func (s *AnalysisStore) query(ctx context.Context, q string, args ...any) ([]*domain.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var result []*domain.AnalysisRecord
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*domain.AnalysisRecord, error) {
	var (
		r            domain.AnalysisRecord
		cfg, metrics string
	)
	if err := row.Scan(&r.ID, &r.RunID, &r.SheetName, &r.AccountName, &cfg, &metrics, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfg), &r.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	return &r, nil
}

// limitArg maps a non-positive limit to SQLite's unlimited -1.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
