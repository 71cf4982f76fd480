package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"risklo/internal/domain"
	"risklo/internal/ninjatrader"
	"risklo/internal/orchestrator"
	"risklo/internal/reporting"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	debugRowCount    = 10
	noDataSampleRows = 5
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	SheetName             string `json:"sheetName"`
	AccountSize           number `json:"accountSize"`
	Contracts             number `json:"contracts"`
	ContractType          string `json:"contractType"`
	MaxDrawdown           number `json:"maxDrawdown"`
	StartOfDayProfit      number `json:"startOfDayProfit"`
	SafetyNet             number `json:"safetyNet"`
	ProfitSinceLastPayout number `json:"profitSinceLastPayout"`
}

// Config converts the request into an engine input.
func (req AnalyzeRequest) Config() (domain.PositionConfig, error) {
	name := strings.TrimSpace(req.SheetName)
	if name == "" {
		return domain.PositionConfig{}, &domain.InvalidInputError{Field: "sheetName", Message: "sheetName is required"}
	}
	if req.Contracts.value != float64(int(req.Contracts.value)) {
		return domain.PositionConfig{}, &domain.InvalidInputError{Field: "contracts", Message: "contracts must be a positive integer"}
	}
	contractType := domain.ContractNQ
	if req.ContractType != "" {
		contractType = domain.ContractType(strings.ToUpper(strings.TrimSpace(req.ContractType)))
	}
	return domain.PositionConfig{
		SheetName:             name,
		AccountSize:           req.AccountSize.value,
		Contracts:             int(req.Contracts.value),
		ContractType:          contractType,
		MaxDrawdown:           req.MaxDrawdown.option(),
		StartOfDayProfit:      req.StartOfDayProfit.option(),
		SafetyNet:             req.SafetyNet.option(),
		ProfitSinceLastPayout: req.ProfitSinceLastPayout.option(),
	}, nil
}

type analyzeResponse struct {
	Success bool                `json:"success"`
	ID      string              `json:"id,omitempty"`
	Metrics *domain.RiskMetrics `json:"metrics,omitempty"`
	Error   string              `json:"error,omitempty"`
	Debug   *noDataDebug        `json:"debug,omitempty"`
}

type noDataDebug struct {
	TotalRows  int                `json:"totalRows"`
	SampleRows []domain.SampleRow `json:"sampleRows"`
}

// BulkAnalyzeRequest is the body of POST /api/bulk-analyze.
type BulkAnalyzeRequest struct {
	Rows     []domain.PositionRow `json:"rows"`
	RiskMode domain.RiskMode      `json:"riskMode"`
}

// ImportRequest is the body of POST /api/import-csv.
type ImportRequest struct {
	AccountCSV  string          `json:"accountCsv"`
	StrategyCSV string          `json:"strategyCsv"`
	RiskMode    domain.RiskMode `json:"riskMode"`
	Wait        bool            `json:"wait"` // analyze inline instead of queueing
}

type importResponse struct {
	Success bool                     `json:"success"`
	Rows    []domain.PositionRow     `json:"rows"`
	Queued  bool                     `json:"queued"`
	Result  *orchestrator.BulkResult `json:"result,omitempty"`
}

// SummaryRequest is the body of POST /api/summary.
type SummaryRequest struct {
	Results  []domain.AccountResult `json:"results"`
	RiskMode domain.RiskMode        `json:"riskMode"`
	Format   string                 `json:"format"` // markdown (default) or csv
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	names, err := s.provider.SheetNames(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sheets": names})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["sheet"]
	rows, err := s.provider.Rows(r.Context(), name)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	first := rows
	if len(first) > debugRowCount {
		first = first[:debugRowCount]
	}
	var sample domain.SheetRow
	if len(rows) > 2 {
		sample = rows[2]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"sheetName":   name,
		"totalRows":   len(rows),
		"first10Rows": first,
		"sampleRow":   sample,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	cfg, err := req.Config()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	rec, err := s.orch.Analyze(r.Context(), cfg)
	if err != nil {
		var noData *domain.NoTradingDataError
		if errors.As(err, &noData) {
			samples := noData.SampleRows
			if len(samples) > noDataSampleRows {
				samples = samples[:noDataSampleRows]
			}
			writeJSON(w, http.StatusOK, analyzeResponse{
				Success: false,
				Error:   noData.Error(),
				Debug:   &noDataDebug{TotalRows: noData.TotalRows, SampleRows: samples},
			})
			return
		}
		s.writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, ID: rec.ID, Metrics: &rec.Metrics})
}

func (s *Server) handleBulkAnalyze(w http.ResponseWriter, r *http.Request) {
	var req BulkAnalyzeRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	mode, err := parseMode(req.RiskMode)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	res, err := s.orch.Run(r.Context(), req.Rows, mode)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoPositions) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "rows"})
			return
		}
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.AccountCSV) == "" || strings.TrimSpace(req.StrategyCSV) == "" {
		writeError(w, http.StatusBadRequest, "both accountCsv and strategyCsv are required")
		return
	}
	mode, err := parseMode(req.RiskMode)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	accounts, err := ninjatrader.ParseAccounts(strings.NewReader(req.AccountCSV))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to parse account CSV", Message: err.Error()})
		return
	}
	strategies, err := ninjatrader.ParseStrategies(strings.NewReader(req.StrategyCSV))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to parse strategy CSV", Message: err.Error()})
		return
	}

	// Without sheet names strategies keep their exported names.
	names, err := s.provider.SheetNames(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("sheet names unavailable for matching")
	}
	rows := ninjatrader.Match(accounts, strategies, names)

	resp := importResponse{Success: true, Rows: rows}
	if len(rows) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if req.Wait || s.reanalyze == nil {
		res, err := s.orch.Run(r.Context(), rows, mode)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		resp.Result = res
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Queued = s.reanalyze.Emit(orchestrator.ReanalyzeRequest{
		Rows:   rows,
		Mode:   mode,
		Source: "import:" + RequestID(r.Context()),
	})
	if !resp.Queued {
		s.logger.Warn().Int("rows", len(rows)).Msg("re-analysis request dropped")
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	mode, err := parseMode(req.RiskMode)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	format := req.Format
	if q := r.URL.Query().Get("format"); q != "" {
		format = q
	}
	summary := reporting.Summarize(req.Results, mode, s.now())

	switch strings.ToLower(format) {
	case "", "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reporting.RenderMarkdown(summary)))
	case "csv":
		out, err := reporting.RenderCSV(summary)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
	case "json":
		writeJSON(w, http.StatusOK, summary)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "format must be markdown, csv or json", Field: "format"})
	}
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "analysis history is disabled")
		return
	}
	rec, err := s.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if f := r.URL.Query().Get("format"); f == "markdown" || f == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reporting.RenderAnalysis(rec)))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "analysis history is disabled")
		return
	}
	q := r.URL.Query()
	limit := queryInt(r, "limit", defaultListLimit)
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		recs []*domain.AnalysisRecord
		err  error
	)
	switch {
	case q.Get("run") != "":
		recs, err = s.store.GetByRunID(r.Context(), q.Get("run"))
	case q.Get("sheet") != "":
		recs, err = s.store.GetBySheet(r.Context(), q.Get("sheet"), limit)
	default:
		recs, err = s.store.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if recs == nil {
		recs = []*domain.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": recs, "count": len(recs)})
}

func parseMode(m domain.RiskMode) (domain.RiskMode, error) {
	switch m {
	case "":
		return domain.RiskModeDrawdown, nil
	case domain.RiskModeDrawdown, domain.RiskModeApexMae:
		return m, nil
	}
	return "", &domain.InvalidInputError{Field: "riskMode", Message: "riskMode must be risk or apexMae"}
}
