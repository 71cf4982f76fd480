// Package orchestrator runs analyses end to end.
// It coordinates: sheet fetch → normalization → metrics → storage → result events
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"risklo/internal/domain"
	"risklo/internal/events"
	"risklo/internal/idhash"
	"risklo/internal/metrics"
	"risklo/internal/observability"
	"risklo/internal/sheets"
	"risklo/internal/storage"
)

// Bulk row failures reported in AccountResult.Error.
var (
	// ErrNoStrategy marks an account with no strategy assigned.
	ErrNoStrategy = errors.New("no strategy data available")

	// ErrInsufficientData marks a strategy sheet with fewer than three rows.
	ErrInsufficientData = errors.New("insufficient data in strategy sheet")

	// ErrNoPositions is returned by Run for an empty position book.
	ErrNoPositions = errors.New("no positions to analyze")
)

// minSheetRows is two header rows plus one data row.
const minSheetRows = 3

// DefaultConcurrency bounds parallel sheet fetches in a bulk run.
const DefaultConcurrency = 4

// ResultEvent is published after every single analysis and bulk run.
type ResultEvent struct {
	Kind    string                 `json:"kind"` // "analysis" or "bulk"
	RunID   string                 `json:"runId,omitempty"`
	Record  *domain.AnalysisRecord `json:"record,omitempty"`
	Results []domain.AccountResult `json:"results,omitempty"`
}

// ReanalyzeRequest asks Watch to analyze a position book.
type ReanalyzeRequest struct {
	Rows   []domain.PositionRow
	Mode   domain.RiskMode
	Source string // who asked, for logs
}

// BulkResult is the outcome of Run. Results keep input order.
type BulkResult struct {
	RunID   string                 `json:"runId"`
	Mode    domain.RiskMode        `json:"riskMode"`
	Results []domain.AccountResult `json:"results"`
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Provider sheets.Provider

	// Optional
	Store       storage.AnalysisStore
	Metrics     *observability.Metrics
	Results     *events.Signal[ResultEvent]
	Concurrency int
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Orchestrator coordinates analysis execution.
type Orchestrator struct {
	provider    sheets.Provider
	store       storage.AnalysisStore
	metrics     *observability.Metrics
	results     *events.Signal[ResultEvent]
	concurrency int
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	lastBook *ReanalyzeRequest
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		provider:    opts.Provider,
		store:       opts.Store,
		metrics:     opts.Metrics,
		results:     opts.Results,
		concurrency: opts.Concurrency,
		logger:      opts.Logger.With().Str("component", "orchestrator").Logger(),
		now:         opts.Now,
	}
}

// Analyze fetches the configured sheet, computes its metrics and records the analysis.
// Returns *domain.InvalidInputError, *domain.NoTradingDataError, sheets.ErrSheetNotFound
// or a wrapped infrastructure error.
func (o *Orchestrator) Analyze(ctx context.Context, cfg domain.PositionConfig) (*domain.AnalysisRecord, error) {
	start := o.now()
	if err := cfg.Validate(); err != nil {
		o.metrics.RecordAnalysis(observability.OutcomeInvalid, 0, nil)
		return nil, err
	}

	rows, err := o.fetchRows(ctx, cfg.SheetName)
	if err != nil {
		o.metrics.RecordAnalysis(observability.OutcomeError, time.Since(start), nil)
		return nil, err
	}

	m, err := metrics.Compute(rows, cfg)
	if err != nil {
		o.metrics.RecordAnalysis(outcomeOf(err), time.Since(start), nil)
		return nil, err
	}
	o.metrics.RecordAnalysis(observability.OutcomeOK, time.Since(start), &m)

	rec := o.newRecord("", "", cfg, m)
	if o.store != nil {
		if err := o.store.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			// History is best effort; the caller still gets the result.
			o.logger.Error().Err(err).Str("id", rec.ID).Msg("store analysis failed")
		}
	}

	o.logger.Info().
		Str("sheet", cfg.SheetName).
		Str("id", idhash.ShortID(rec.ID)).
		Str("blowout", string(m.BlowAccountStatus)).
		Int("score", m.RiskScore).
		Dur("took", time.Since(start)).
		Msg("analysis complete")

	o.publish(ResultEvent{Kind: "analysis", Record: rec})
	return rec, nil
}

// Run analyzes every position row concurrently. Rows without a strategy,
// missing or short sheets and engine errors are recorded per row and do not
// fail the run. Successful rows are stored under one run id.
func (o *Orchestrator) Run(ctx context.Context, rows []domain.PositionRow, mode domain.RiskMode) (*BulkResult, error) {
	if len(rows) == 0 {
		return nil, ErrNoPositions
	}
	if mode == "" {
		mode = domain.RiskModeDrawdown
	}

	start := o.now()
	runID := ulid.Make().String()
	results := make([]domain.AccountResult, len(rows))
	records := make([]*domain.AnalysisRecord, len(rows))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], records[i] = o.analyzeRow(ctx, runID, row, mode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bulk run %s: %w", runID, err)
	}

	if o.store != nil {
		// Identical rows hash to the same id; keep the first.
		seen := make(map[string]struct{}, len(records))
		var ok []*domain.AnalysisRecord
		for _, r := range records {
			if r == nil {
				continue
			}
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			ok = append(ok, r)
		}
		if err := o.store.InsertBulk(ctx, ok); err != nil {
			o.logger.Error().Err(err).Str("run_id", runID).Msg("store bulk run failed")
		}
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	o.metrics.RecordBulkRun(time.Since(start), o.now())
	o.logger.Info().
		Str("run_id", runID).
		Str("mode", string(mode)).
		Int("rows", len(rows)).
		Int("failed", failed).
		Dur("took", time.Since(start)).
		Msg("bulk run complete")

	o.remember(ReanalyzeRequest{Rows: rows, Mode: mode, Source: "run"})
	o.publish(ResultEvent{Kind: "bulk", RunID: runID, Results: results})
	return &BulkResult{RunID: runID, Mode: mode, Results: results}, nil
}

func (o *Orchestrator) analyzeRow(ctx context.Context, runID string, row domain.PositionRow, mode domain.RiskMode) (domain.AccountResult, *domain.AnalysisRecord) {
	res := domain.AccountResult{Position: row, RiskMode: mode}

	if row.Strategy == "" {
		res.Error = ErrNoStrategy.Error()
		o.metrics.RecordBulkRow(observability.OutcomeSkipped)
		return res, nil
	}

	rows, err := o.fetchRows(ctx, row.Strategy)
	if err != nil {
		res.Error = fmt.Sprintf("failed to fetch strategy data: %v", err)
		o.metrics.RecordBulkRow(observability.OutcomeError)
		return res, nil
	}
	if len(rows) < minSheetRows {
		res.Error = ErrInsufficientData.Error()
		o.metrics.RecordBulkRow(observability.OutcomeNoData)
		return res, nil
	}

	cfg := row.Config()
	m, err := metrics.Compute(rows, cfg)
	if err != nil {
		res.Error = err.Error()
		o.metrics.RecordBulkRow(outcomeOf(err))
		return res, nil
	}

	res.Metrics = domain.Some(m)
	o.metrics.RecordBulkRow(observability.OutcomeOK)
	return res, o.newRecord(runID, row.AccountName, cfg, m)
}

func (o *Orchestrator) fetchRows(ctx context.Context, sheet string) ([]domain.SheetRow, error) {
	start := time.Now()
	rows, err := o.provider.Rows(ctx, sheet)
	o.metrics.RecordSheetFetch("rows", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (o *Orchestrator) newRecord(runID, account string, cfg domain.PositionConfig, m domain.RiskMetrics) *domain.AnalysisRecord {
	createdAt := o.now().UnixMilli()
	return &domain.AnalysisRecord{
		ID:          idhash.ComputeAnalysisID(runID, account, cfg, createdAt),
		RunID:       runID,
		SheetName:   cfg.SheetName,
		AccountName: account,
		Config:      cfg,
		Metrics:     m,
		CreatedAt:   createdAt,
	}
}

func (o *Orchestrator) publish(ev ResultEvent) {
	if o.results == nil {
		return
	}
	if !o.results.Emit(ev) {
		o.logger.Debug().Str("kind", ev.Kind).Msg("result event dropped")
	}
}

func (o *Orchestrator) remember(req ReanalyzeRequest) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastBook = &req
}

// LastBook returns the most recently analyzed position book.
func (o *Orchestrator) LastBook() (ReanalyzeRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastBook == nil {
		return ReanalyzeRequest{}, false
	}
	return *o.lastBook, true
}

// Watch subscribes to sig and runs a bulk analysis for every request until ctx
// is done or another subscriber replaces this one.
func (o *Orchestrator) Watch(ctx context.Context, sig *events.Signal[ReanalyzeRequest]) error {
	sub := sig.Subscribe()
	defer sig.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-sub:
			if !ok {
				return nil
			}
			if _, err := o.Run(ctx, req.Rows, req.Mode); err != nil {
				o.logger.Warn().Err(err).Str("source", req.Source).Msg("re-analysis failed")
			}
		}
	}
}

func outcomeOf(err error) string {
	var noData *domain.NoTradingDataError
	var invalid *domain.InvalidInputError
	switch {
	case errors.As(err, &noData):
		return observability.OutcomeNoData
	case errors.As(err, &invalid):
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeError
	}
}
