package decision

import (
	"fmt"
	"math"

	"risklo/internal/domain"
)

// ScoreResult is the composite risk score with its qualitative level.
type ScoreResult struct {
	Score            int
	Level            domain.RiskLevel
	WorstLossPercent float64 // unrounded, percent of account
	AvgLossPercent   float64
	Message          string
}

// ComposeScore combines account exposure and drawdown usage into a 0-100 score.
// Each half contributes at most 50 points. Without a drawdown limit the account
// exposure is counted twice.
func ComposeScore(s domain.ScaledSeries, cfg domain.PositionConfig) ScoreResult {
	accountRatio := s.WorstLoss / cfg.AccountSize
	usage := accountRatio
	if limit, ok := cfg.MaxDrawdown.Get(); ok && limit > 0 {
		usage = math.Min(s.WorstLoss/limit, 1.0)
	}

	raw := math.Min(accountRatio*50, 50) + math.Min(usage*50, 50)
	score := int(math.Max(0, math.Min(math.Round(raw), 100)))

	res := ScoreResult{
		Score:            score,
		WorstLossPercent: s.WorstLoss / cfg.AccountSize * 100,
		AvgLossPercent:   s.AvgLoss / cfg.AccountSize * 100,
	}
	res.Level = riskLevel(res.WorstLossPercent, res.AvgLossPercent, score)

	switch res.Level {
	case domain.RiskHigh:
		res.Message = fmt.Sprintf("Warning: Highest historical loss of $%.2f (%.2f%% of account) with %d contract(s) exceeds safe thresholds. Consider reducing position size.",
			s.WorstLoss, res.WorstLossPercent, cfg.Contracts)
	case domain.RiskModerate:
		res.Message = fmt.Sprintf("Moderate risk detected. Highest loss was $%.2f (%.2f%% of account) with %d contract(s). Monitor your positions closely.",
			s.WorstLoss, res.WorstLossPercent, cfg.Contracts)
	default:
		res.Message = fmt.Sprintf("Your current setup appears safe. Highest historical loss was $%.2f (%.2f%% of account) with %d contract(s).",
			s.WorstLoss, res.WorstLossPercent, cfg.Contracts)
	}
	return res
}

// riskLevel applies the multi-factor thresholds; any single factor escalates.
func riskLevel(worstPct, avgPct float64, score int) domain.RiskLevel {
	switch {
	case worstPct > 20 || avgPct > 5 || score > 70:
		return domain.RiskHigh
	case worstPct > 10 || avgPct > 2.5 || score > 40:
		return domain.RiskModerate
	}
	return domain.RiskLow
}
