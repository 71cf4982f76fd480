package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"risklo/internal/domain"
	"risklo/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL.
// Config and metrics are stored as JSONB; headline fields are denormalized
// into columns for filtering.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

const insertAnalysisQuery = `
	INSERT INTO analyses (
		id, run_id, sheet_name, account_name,
		contract_type, contracts, account_size,
		blow_status, risk_level, risk_score,
		config, metrics, created_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10,
		$11, $12, $13
	)
`

const selectAnalysisColumns = `
	SELECT id, run_id, sheet_name, account_name, config, metrics, created_at
	FROM analyses
`

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *AnalysisStore) Insert(ctx context.Context, r *domain.AnalysisRecord) error {
	if err := storage.ValidateRecord(r); err != nil {
		return err
	}
	args, err := insertArgs(r)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, insertAnalysisQuery, args...); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *AnalysisStore) InsertBulk(ctx context.Context, records []*domain.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		if err := storage.ValidateRecord(r); err != nil {
			return err
		}
		args, err := insertArgs(r)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertAnalysisQuery, args...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert analysis in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	row := s.pool.QueryRow(ctx, selectAnalysisColumns+` WHERE id = $1`, id)
	r, err := scanAnalysis(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return r, nil
}

// GetBySheet retrieves up to limit records for a sheet, newest first.
func (s *AnalysisStore) GetBySheet(ctx context.Context, sheetName string, limit int) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+`
		WHERE sheet_name = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2`, sheetName, limitArg(limit))
}

// GetByRunID retrieves all records of a run, oldest first.
func (s *AnalysisStore) GetByRunID(ctx context.Context, runID string) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+`
		WHERE run_id = $1
		ORDER BY created_at ASC, id ASC`, runID)
}

// ListRecent retrieves up to limit records, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+`
		ORDER BY created_at DESC, id ASC
		LIMIT $1`, limitArg(limit))
}

func (s *AnalysisStore) query(ctx context.Context, sql string, args ...any) ([]*domain.AnalysisRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
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

func insertArgs(r *domain.AnalysisRecord) ([]any, error) {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	return []any{
		r.ID, r.RunID, r.SheetName, r.AccountName,
		string(r.Config.ContractType), r.Config.Contracts, r.Config.AccountSize,
		string(r.Metrics.BlowAccountStatus), string(r.Metrics.RiskLevel), r.Metrics.RiskScore,
		cfg, metrics, r.CreatedAt,
	}, nil
}

func scanAnalysis(row pgx.Row) (*domain.AnalysisRecord, error) {
	var (
		r            domain.AnalysisRecord
		cfg, metrics []byte
	)
	if err := row.Scan(&r.ID, &r.RunID, &r.SheetName, &r.AccountName, &cfg, &metrics, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &r.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal(metrics, &r.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	return &r, nil
}

// limitArg maps a non-positive limit to no limit.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
