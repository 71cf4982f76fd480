// Package scheduler re-analyzes the last imported position book on a cron
// schedule and writes summary reports.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"risklo/internal/domain"
	"risklo/internal/observability"
	"risklo/internal/orchestrator"
	"risklo/internal/reporting"
)

// Report file names inside the output directory.
const (
	MarkdownFile = "summary.md"
	CSVFile      = "summary.csv"
)

// ErrNoBook is returned when no position book has been analyzed yet.
var ErrNoBook = errors.New("no position book to re-analyze")

// Runner re-runs bulk analyses.
type Runner interface {
	LastBook() (orchestrator.ReanalyzeRequest, bool)
	Run(ctx context.Context, rows []domain.PositionRow, mode domain.RiskMode) (*orchestrator.BulkResult, error)
}

// Options for creating Scheduler.
type Options struct {
	Runner    Runner
	OutputDir string
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Scheduler manages the summary cron job.
type Scheduler struct {
	cron      *cron.Cron
	runner    Runner
	outputDir string
	metrics   *observability.Metrics
	logger    zerolog.Logger
	now       func() time.Time
	ctx       context.Context
}

// New creates a Scheduler. Overlapping ticks are skipped.
func New(opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:    opts.Runner,
		outputDir: opts.OutputDir,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       opts.Now,
		ctx:       context.Background(),
	}
}

// Register adds the summary job on a standard five-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register summary job: %w", err)
	}
	return nil
}

// Start runs registered jobs until Stop. Jobs use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) tick() {
	_, err := s.RunNow(s.ctx)
	if errors.Is(err, ErrNoBook) {
		s.logger.Debug().Msg("no position book yet, skipping")
		return
	}
	s.metrics.RecordScheduledRun(err)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled summary failed")
	}
}

// RunNow re-analyzes the last book and writes the reports. Returns the
// summary written.
func (s *Scheduler) RunNow(ctx context.Context) (*reporting.Summary, error) {
	book, ok := s.runner.LastBook()
	if !ok {
		return nil, ErrNoBook
	}

	res, err := s.runner.Run(ctx, book.Rows, book.Mode)
	if err != nil {
		return nil, fmt.Errorf("re-analyze: %w", err)
	}

	summary := reporting.Summarize(res.Results, res.Mode, s.now())
	if err := s.write(summary); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", res.RunID).
		Int("accounts", summary.Total).
		Int("at_risk", summary.TotalAtRisk()).
		Str("dir", s.outputDir).
		Msg("summary written")
	return summary, nil
}

func (s *Scheduler) write(summary *reporting.Summary) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	csvOut, err := reporting.RenderCSV(summary)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	files := []struct {
		name string
		data string
	}{
		{MarkdownFile, reporting.RenderMarkdown(summary)},
		{CSVFile, csvOut},
	}
	for _, f := range files {
		if err := writeFileAtomic(filepath.Join(s.outputDir, f.name), []byte(f.data)); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file so readers never see a partial report.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
