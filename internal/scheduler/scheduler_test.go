package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"risklo/internal/domain"
	"risklo/internal/observability"
	"risklo/internal/orchestrator"
)

type fakeRunner struct {
	mu    sync.Mutex
	book  *orchestrator.ReanalyzeRequest
	err   error
	calls int
}

func (r *fakeRunner) LastBook() (orchestrator.ReanalyzeRequest, bool) {
	if r.book == nil {
		return orchestrator.ReanalyzeRequest{}, false
	}
	return *r.book, true
}

func (r *fakeRunner) Run(_ context.Context, rows []domain.PositionRow, mode domain.RiskMode) (*orchestrator.BulkResult, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	results := make([]domain.AccountResult, len(rows))
	for i, row := range rows {
		results[i] = domain.AccountResult{
			Position: row,
			RiskMode: mode,
			Metrics:  domain.Some(domain.RiskMetrics{BlowAccountStatus: domain.BlowoutNOGO, RiskScore: 75}),
		}
	}
	return &orchestrator.BulkResult{RunID: "run-1", Mode: mode, Results: results}, nil
}

func (r *fakeRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func book() *orchestrator.ReanalyzeRequest {
	return &orchestrator.ReanalyzeRequest{
		Mode: domain.RiskModeDrawdown,
		Rows: []domain.PositionRow{{
			AccountName:         "PA-001",
			Strategy:            "Alpha",
			ContractType:        domain.ContractNQ,
			Contracts:           1,
			CurrentBalance:      50000,
			TrailingMaxDrawdown: 2000,
		}},
	}
}

func newScheduler(t *testing.T, runner Runner, m *observability.Metrics) (*Scheduler, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	return New(Options{
		Runner:    runner,
		OutputDir: dir,
		Metrics:   m,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC) },
	}), dir
}

func TestRunNow_WritesReports(t *testing.T) {
	s, dir := newScheduler(t, &fakeRunner{book: book()}, nil)

	summary, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if summary.NoGoCount != 1 {
		t.Errorf("expected 1 no-go account, got %d", summary.NoGoCount)
	}

	md, err := os.ReadFile(filepath.Join(dir, MarkdownFile))
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.HasPrefix(string(md), "# High Risk Alert: 1 Account(s) Require Attention") {
		t.Errorf("unexpected markdown header: %q", strings.SplitN(string(md), "\n", 2)[0])
	}
	if !strings.Contains(string(md), "Generated: 2025-03-03T06:00:00Z") {
		t.Error("markdown missing generation time")
	}

	csvData, err := os.ReadFile(filepath.Join(dir, CSVFile))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "PA-001,Alpha,1,NQ") {
		t.Errorf("unexpected csv row: %q", lines[1])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only report files, found %d entries", len(entries))
	}
}

func TestRunNow_NoBook(t *testing.T) {
	runner := &fakeRunner{}
	s, dir := newScheduler(t, runner, nil)

	if _, err := s.RunNow(context.Background()); !errors.Is(err, ErrNoBook) {
		t.Fatalf("expected ErrNoBook, got %v", err)
	}
	if runner.Calls() != 0 {
		t.Error("runner should not be called without a book")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("output dir should not be created")
	}
}

func TestTick_RecordsOutcome(t *testing.T) {
	m := observability.NewMetrics("")

	ok, _ := newScheduler(t, &fakeRunner{book: book()}, m)
	ok.tick()
	failing, _ := newScheduler(t, &fakeRunner{book: book(), err: errors.New("sheets down")}, m)
	failing.tick()
	idle, _ := newScheduler(t, &fakeRunner{}, m)
	idle.tick()

	if got := testutil.ToFloat64(m.ScheduledRuns.WithLabelValues("success")); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ScheduledRuns.WithLabelValues("failure")); got != 1 {
		t.Errorf("failure runs = %v, want 1", got)
	}
}

func TestRegister(t *testing.T) {
	s, _ := newScheduler(t, &fakeRunner{}, nil)
	if err := s.Register("not a cron spec"); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.Register("*/5 * * * *"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}

func TestStartStop_RunsJob(t *testing.T) {
	runner := &fakeRunner{book: book()}
	s, dir := newScheduler(t, runner, nil)
	if _, err := s.cron.AddFunc("@every 50ms", s.tick); err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	deadline := time.Now().Add(3 * time.Second)
	for runner.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	s.Stop()

	if runner.Calls() == 0 {
		t.Fatal("scheduled job never ran")
	}
	if _, err := os.Stat(filepath.Join(dir, MarkdownFile)); err != nil {
		t.Errorf("summary not written: %v", err)
	}
}
