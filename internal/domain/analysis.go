package domain

// AnalysisRecord is a persisted analysis result.
type AnalysisRecord struct {
	ID          string         `json:"id"`    // deterministic hash of inputs and creation time
	RunID       string         `json:"runId"` // bulk run, empty for single analyses
	SheetName   string         `json:"sheetName"`
	AccountName string         `json:"accountName,omitempty"`
	Config      PositionConfig `json:"config"`
	Metrics     RiskMetrics    `json:"metrics"`
	CreatedAt   int64          `json:"createdAt"` // unix ms
}
