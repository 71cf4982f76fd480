package domain

// RiskMode names the limit a bulk run is judged against.
type RiskMode string

const (
	RiskModeDrawdown RiskMode = "risk"    // trailing drawdown
	RiskModeApexMae  RiskMode = "apexMae" // 30% MAE rule
)

// PositionRow is one account/strategy pairing produced by a NinjaTrader import.
type PositionRow struct {
	AccountNumber       int          `json:"accountNumber"`
	AccountName         string       `json:"accountName"`
	Strategy            string       `json:"strategy"` // sheet name, empty when the account runs no strategy
	ContractType        ContractType `json:"contractType"`
	Contracts           int          `json:"numContracts"`
	CurrentBalance      float64      `json:"currentBalance"` // net liquidation
	CashValue           float64      `json:"cashValue"`
	TrailingMaxDrawdown float64      `json:"maxDrawdown"` // negative when the account is blown
	AccountSize         float64      `json:"accountSize"` // closest preset size
	StartOfDayProfit    float64      `json:"startOfDayProfit"`
	SafetyNet           float64      `json:"safetyNet"`
}

// Blown reports whether the export shows a negative trailing drawdown.
func (r PositionRow) Blown() bool {
	return r.TrailingMaxDrawdown < 0
}

// Config builds the engine input for this row.
// The current balance is the account size; the start-of-day profit doubles as the
// profit since the last payout.
func (r PositionRow) Config() PositionConfig {
	cfg := PositionConfig{
		SheetName:             r.Strategy,
		AccountSize:           r.CurrentBalance,
		Contracts:             r.Contracts,
		ContractType:          r.ContractType,
		StartOfDayProfit:      Some(r.StartOfDayProfit),
		SafetyNet:             Some(r.SafetyNet),
		ProfitSinceLastPayout: Some(r.StartOfDayProfit),
	}
	if r.TrailingMaxDrawdown > 0 {
		cfg.MaxDrawdown = Some(r.TrailingMaxDrawdown)
	} else {
		cfg.DrawdownExhausted = true
	}
	return cfg
}

// AccountResult is the outcome of analyzing one PositionRow.
type AccountResult struct {
	Position PositionRow         `json:"position"`
	RiskMode RiskMode            `json:"riskMode"`
	Metrics  Option[RiskMetrics] `json:"metrics"`
	Error    string              `json:"error,omitempty"`
}

// AccountName returns the display name used in summaries.
func (r AccountResult) AccountName() string {
	return r.Position.AccountName
}
