package domain

// BlowoutStatus is the account-blowout verdict.
type BlowoutStatus string

const (
	BlowoutGO      BlowoutStatus = "GO"
	BlowoutCaution BlowoutStatus = "CAUTION"
	BlowoutNOGO    BlowoutStatus = "NO_GO"
	BlowoutUnknown BlowoutStatus = "UNKNOWN" // no drawdown limit and no MAE basis
)

// RiskLevel is the qualitative bucket derived from the composite score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// MaeStatus is the Apex MAE verdict.
type MaeStatus string

const (
	MaeSafe    MaeStatus = "SAFE"
	MaeExceeds MaeStatus = "EXCEEDS"
)

// WindfallStatus is the 30% consistency rule verdict.
type WindfallStatus string

const (
	WindfallNoData   WindfallStatus = "NO_DATA"
	WindfallInfo     WindfallStatus = "INFO"
	WindfallSafe     WindfallStatus = "SAFE"
	WindfallViolates WindfallStatus = "VIOLATES"
)

// Display colors.
const (
	ColorRed   = "#ef4444"
	ColorAmber = "#f59e0b"
	ColorGreen = "#10b981"
	ColorGray  = "#6b7280"
)

// Color returns the display color for a blowout status.
func (s BlowoutStatus) Color() string {
	switch s {
	case BlowoutNOGO:
		return ColorRed
	case BlowoutCaution:
		return ColorAmber
	case BlowoutGO:
		return ColorGreen
	}
	return ColorGray
}

// Color returns the display color for a risk level.
func (l RiskLevel) Color() string {
	switch l {
	case RiskHigh:
		return ColorRed
	case RiskModerate:
		return ColorAmber
	}
	return ColorGreen
}

// DrawdownBreach compares historical losses with the trailing drawdown limit.
type DrawdownBreach struct {
	MaxDrawdown       float64 `json:"maxDrawdown"`
	Breaches          int     `json:"breaches"`
	BreachProbability float64 `json:"breachProbability"` // percent of all observations
	HighestExceeds    bool    `json:"highestExceeds"`
	HighestLoss       float64 `json:"highestLoss"`
	Margin            float64 `json:"margin"` // limit minus worst loss, negative on breach
}

// ApexMaeComparison is the Apex MAE limit and how history compares to it.
type ApexMaeComparison struct {
	BaseAmount           float64   `json:"baseAmount"`
	LimitPercent         float64   `json:"limitPercent"` // 0.3 or 0.5
	MaxMaePerTrade       float64   `json:"maxMaePerTrade"`
	ExceedsMae           bool      `json:"exceedsMae"`
	MaeBuffer            float64   `json:"maeBuffer"`
	WorstLossForSize     float64   `json:"worstLossForSize"`
	MaeStatus            MaeStatus `json:"maeStatus"`
	MaeBreachProbability float64   `json:"maeBreachProbability"`
	MaeBreaches          int       `json:"maeBreaches"`
	TotalTradingDays     int       `json:"totalTradingDays"`
	MaeMessage           string    `json:"maeMessage"`
}

// WindfallRule is the 30% consistency rule check.
type WindfallRule struct {
	MaxProfitDay              float64         `json:"maxProfitDay"`
	MinTotalProfitRequired    float64         `json:"minTotalProfitRequired"`
	MaxProfitPercentOfBalance Option[float64] `json:"maxProfitPercentOfBalance"`
	ViolatesWindfall          Option[bool]    `json:"violatesWindfall"` // None when the balance is unknown
	WindfallStatus            WindfallStatus  `json:"windfallStatus"`
	UsesProfitSincePayout     bool            `json:"usesProfitSincePayout"`
	WindfallMessage           string          `json:"windfallMessage"`

	// Payout planning
	ProfitBalance          Option[float64] `json:"profitBalanceForWindfall"`
	AdditionalProfitNeeded Option[float64] `json:"additionalProfitNeeded"`
	MaxProfitTodayAllowed  Option[float64] `json:"maxProfitTodayAllowed"`
	MaxProfitTodayMessage  string          `json:"maxProfitTodayMessage,omitempty"`
}

// RiskMetrics is the assembled risk assessment of one strategy and position.
// Money fields are position-sized unless suffixed PerContract.
type RiskMetrics struct {
	HighestLoss        float64 `json:"highestLoss"`
	HighestLossPercent float64 `json:"highestLossPercent"`
	AvgLoss            float64 `json:"avgLoss"`
	AvgLossPercent     float64 `json:"avgLossPercent"`
	MaxProfit          float64 `json:"maxProfit"`
	MaxProfitPercent   float64 `json:"maxProfitPercent"`
	AvgProfit          float64 `json:"avgProfit"`
	AvgProfitPercent   float64 `json:"avgProfitPercent"`

	HighestLossPerContract float64 `json:"highestLossPerContract"`
	AvgLossPerContract     float64 `json:"avgLossPerContract"`
	MaxProfitPerContract   float64 `json:"maxProfitPerContract"`
	AvgProfitPerContract   float64 `json:"avgProfitPerContract"`

	NumContracts int       `json:"numContracts"`
	RiskScore    int       `json:"riskScore"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	RiskColor    string    `json:"riskColor"`
	RiskMessage  string    `json:"riskMessage"`

	TotalDays   int `json:"totalDays"`
	LosingDays  int `json:"losingDays"`
	WinningDays int `json:"winningDays"`

	DrawdownBreach Option[DrawdownBreach] `json:"drawdownBreach"`

	BlowAccountStatus      BlowoutStatus   `json:"blowAccountStatus"`
	BlowAccountColor       string          `json:"blowAccountColor"`
	BlowAccountMessage     string          `json:"blowAccountMessage"`
	BlowAccountProbability Option[float64] `json:"blowAccountProbability"`

	ContractType ContractType `json:"contractType"`

	ApexMaeComparison Option[ApexMaeComparison] `json:"apexMaeComparison"`
	WindfallRule      Option[WindfallRule]      `json:"windfallRule"`
}
