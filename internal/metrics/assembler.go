package metrics

import (
	"errors"
	"fmt"
	"math"

	"risklo/internal/decision"
	"risklo/internal/domain"
	"risklo/internal/normalization"
)

// ErrNonFiniteMetric indicates a NaN or Inf reached the output record.
var ErrNonFiniteMetric = errors.New("non-finite metric")

const unknownBlowoutMessage = "Enter a max trailing drawdown or Apex MAE inputs to evaluate account blowout risk."

// Compute runs the full engine over raw sheet rows.
func Compute(rows []domain.SheetRow, cfg domain.PositionConfig) (domain.RiskMetrics, error) {
	if err := cfg.Validate(); err != nil {
		return domain.RiskMetrics{}, err
	}
	series, err := normalization.Normalize(rows)
	if err != nil {
		return domain.RiskMetrics{}, err
	}
	return Assemble(series, cfg)
}

// Assemble sizes the series and merges every evaluator into one record.
// Evaluators run in a fixed order: blowout, Apex MAE, windfall, score.
func Assemble(series domain.Series, cfg domain.PositionConfig) (domain.RiskMetrics, error) {
	if err := cfg.Validate(); err != nil {
		return domain.RiskMetrics{}, err
	}

	scaler := NewScaler(cfg.ContractType, cfg.Contracts)
	scaled := scaler.Apply(series)

	var blowout *decision.BlowoutResult
	if limit, ok := cfg.MaxDrawdown.Get(); ok {
		b := decision.EvaluateBlowout(scaled, limit, cfg.Contracts)
		blowout = &b
	}
	mae := decision.EvaluateApexMae(scaled, cfg)
	windfall := decision.EvaluateWindfall(scaled, cfg)
	score := decision.ComposeScore(scaled, cfg)

	m := domain.RiskMetrics{
		HighestLoss:        scaled.WorstLoss,
		HighestLossPercent: decision.Round2(score.WorstLossPercent),
		AvgLoss:            scaled.AvgLoss,
		AvgLossPercent:     decision.Round2(score.AvgLossPercent),
		MaxProfit:          scaled.MaxProfit,
		AvgProfit:          scaled.AvgProfit,

		HighestLossPerContract: scaler.PerContract(maxOf(series.Losses)),
		AvgLossPerContract:     scaler.PerContract(mean(series.Losses)),
		MaxProfitPerContract:   scaler.PerContract(maxOf(series.Profits)),
		AvgProfitPerContract:   scaler.PerContract(mean(series.Profits)),

		NumContracts: cfg.Contracts,
		RiskScore:    score.Score,
		RiskLevel:    score.Level,
		RiskColor:    score.Level.Color(),
		RiskMessage:  score.Message,

		TotalDays:   series.TotalObservations(),
		LosingDays:  len(series.Losses),
		WinningDays: len(series.Profits),

		ContractType:      cfg.ContractType,
		ApexMaeComparison: mae,
		WindfallRule:      domain.Some(windfall),
	}
	if scaled.MaxProfit > 0 {
		m.MaxProfitPercent = decision.Round2(scaled.MaxProfit / cfg.AccountSize * 100)
	}
	if scaled.AvgProfit > 0 {
		m.AvgProfitPercent = decision.Round2(scaled.AvgProfit / cfg.AccountSize * 100)
	}

	switch {
	case blowout != nil:
		m.DrawdownBreach = domain.Some(blowout.Breach)
		setBlowout(&m, *blowout)
	case mae.IsSome() && !cfg.DrawdownExhausted:
		cmp, _ := mae.Get()
		setBlowout(&m, decision.BlowoutFromMae(cmp))
	default:
		m.BlowAccountStatus = domain.BlowoutUnknown
		m.BlowAccountColor = domain.BlowoutUnknown.Color()
		m.BlowAccountMessage = unknownBlowoutMessage
	}

	if err := checkFinite(m); err != nil {
		return domain.RiskMetrics{}, err
	}
	return m, nil
}

func setBlowout(m *domain.RiskMetrics, b decision.BlowoutResult) {
	m.BlowAccountStatus = b.Status
	m.BlowAccountColor = b.Status.Color()
	m.BlowAccountMessage = b.Message
	m.BlowAccountProbability = domain.Some(decision.Round2(b.Probability))
}

type namedValue struct {
	name  string
	value float64
}

// checkFinite rejects records carrying NaN or Inf.
func checkFinite(m domain.RiskMetrics) error {
	values := []namedValue{
		{"highestLoss", m.HighestLoss},
		{"highestLossPercent", m.HighestLossPercent},
		{"avgLoss", m.AvgLoss},
		{"avgLossPercent", m.AvgLossPercent},
		{"maxProfit", m.MaxProfit},
		{"maxProfitPercent", m.MaxProfitPercent},
		{"avgProfit", m.AvgProfit},
		{"avgProfitPercent", m.AvgProfitPercent},
		{"highestLossPerContract", m.HighestLossPerContract},
		{"avgLossPerContract", m.AvgLossPerContract},
		{"maxProfitPerContract", m.MaxProfitPerContract},
		{"avgProfitPerContract", m.AvgProfitPerContract},
	}
	values = appendOption(values, "blowAccountProbability", m.BlowAccountProbability)

	if b, ok := m.DrawdownBreach.Get(); ok {
		values = append(values,
			namedValue{"drawdownBreach.breachProbability", b.BreachProbability},
			namedValue{"drawdownBreach.highestLoss", b.HighestLoss},
			namedValue{"drawdownBreach.margin", b.Margin},
		)
	}
	if a, ok := m.ApexMaeComparison.Get(); ok {
		values = append(values,
			namedValue{"apexMaeComparison.baseAmount", a.BaseAmount},
			namedValue{"apexMaeComparison.maxMaePerTrade", a.MaxMaePerTrade},
			namedValue{"apexMaeComparison.maeBuffer", a.MaeBuffer},
			namedValue{"apexMaeComparison.maeBreachProbability", a.MaeBreachProbability},
		)
	}
	if w, ok := m.WindfallRule.Get(); ok {
		values = append(values,
			namedValue{"windfallRule.maxProfitDay", w.MaxProfitDay},
			namedValue{"windfallRule.minTotalProfitRequired", w.MinTotalProfitRequired},
		)
		values = appendOption(values, "windfallRule.maxProfitPercentOfBalance", w.MaxProfitPercentOfBalance)
		values = appendOption(values, "windfallRule.profitBalanceForWindfall", w.ProfitBalance)
		values = appendOption(values, "windfallRule.additionalProfitNeeded", w.AdditionalProfitNeeded)
		values = appendOption(values, "windfallRule.maxProfitTodayAllowed", w.MaxProfitTodayAllowed)
	}

	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNonFiniteMetric, v.name, v.value)
		}
	}
	return nil
}

func appendOption(values []namedValue, name string, o domain.Option[float64]) []namedValue {
	if v, ok := o.Get(); ok {
		return append(values, namedValue{name, v})
	}
	return values
}
