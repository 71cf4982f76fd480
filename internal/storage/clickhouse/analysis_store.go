package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"risklo/internal/domain"
	"risklo/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using ClickHouse.
// ReplacingMergeTree does not reject duplicates, so Insert checks first.
type AnalysisStore struct {
	conn *Conn
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(conn *Conn) *AnalysisStore {
	return &AnalysisStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

const selectAnalysisColumns = `
	SELECT id, run_id, sheet_name, account_name, config_json, metrics_json, created_at
	FROM analyses FINAL
`

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *AnalysisStore) Insert(ctx context.Context, r *domain.AnalysisRecord) error {
	return s.InsertBulk(ctx, []*domain.AnalysisRecord{r})
}

// InsertBulk adds multiple records in one batch. Fails entire batch on any duplicate.
func (s *AnalysisStore) InsertBulk(ctx context.Context, records []*domain.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if err := storage.ValidateRecord(r); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[r.ID] = struct{}{}
		ids = append(ids, r.ID)
	}

	var existing uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM analyses WHERE id IN ?`, ids).Scan(&existing); err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO analyses (
		id, run_id, sheet_name, account_name,
		contract_type, contracts, account_size,
		highest_loss, avg_loss, max_profit, total_days,
		blow_status, blow_probability, risk_level, risk_score,
		config_json, metrics_json, created_at
	)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		cfg, err := json.Marshal(r.Config)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		metrics, err := json.Marshal(r.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
		m := r.Metrics
		err = batch.Append(
			r.ID, r.RunID, r.SheetName, r.AccountName,
			string(r.Config.ContractType), uint32(r.Config.Contracts), r.Config.AccountSize,
			m.HighestLoss, m.AvgLoss, m.MaxProfit, uint32(m.TotalDays),
			string(m.BlowAccountStatus), m.BlowAccountProbability.Ptr(), string(m.RiskLevel), uint8(m.RiskScore),
			string(cfg), string(metrics), r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append analysis: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("insert analyses: %w", err)
	}
	return nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
func (s *AnalysisStore) GetByID(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	records, err := s.query(ctx, selectAnalysisColumns+` WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// GetBySheet retrieves up to limit records for a sheet, newest first.
func (s *AnalysisStore) GetBySheet(ctx context.Context, sheetName string, limit int) ([]*domain.AnalysisRecord, error) {
	q := selectAnalysisColumns + ` WHERE sheet_name = ? ORDER BY created_at DESC, id ASC`
	if limit > 0 {
		return s.query(ctx, q+` LIMIT ?`, sheetName, limit)
	}
	return s.query(ctx, q, sheetName)
}

// GetByRunID retrieves all records of a run, oldest first.
func (s *AnalysisStore) GetByRunID(ctx context.Context, runID string) ([]*domain.AnalysisRecord, error) {
	return s.query(ctx, selectAnalysisColumns+` WHERE run_id = ? ORDER BY created_at ASC, id ASC`, runID)
}

// ListRecent retrieves up to limit records, newest first.
func (s *AnalysisStore) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	q := selectAnalysisColumns + ` ORDER BY created_at DESC, id ASC`
	if limit > 0 {
		return s.query(ctx, q+` LIMIT ?`, limit)
	}
	return s.query(ctx, q)
}

func (s *AnalysisStore) query(ctx context.Context, q string, args ...any) ([]*domain.AnalysisRecord, error) {
	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var result []*domain.AnalysisRecord
	for rows.Next() {
		var (
			r            domain.AnalysisRecord
			cfg, metrics string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.SheetName, &r.AccountName, &cfg, &metrics, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(cfg), &r.Config); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return result, nil
}
