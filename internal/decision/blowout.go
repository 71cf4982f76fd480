package decision

import (
	"fmt"

	"risklo/internal/domain"
)

// Breach probability thresholds (percent of observations).
const (
	NoGoBreachPct    = 5.0
	CautionBreachPct = 1.0
)

// BlowoutResult is the trailing drawdown verdict.
type BlowoutResult struct {
	Status      domain.BlowoutStatus
	Probability float64
	Message     string
	Breach      domain.DrawdownBreach
}

// EvaluateBlowout compares position-sized losses with the trailing drawdown limit.
// The first matching rule wins:
//  1. worst loss above the limit: NO_GO at 100%
//  2. breach probability above 5%: NO_GO
//  3. breach probability above 1%: CAUTION
//  4. no breaches: GO at 0%
//  5. otherwise GO at the breach probability
func EvaluateBlowout(s domain.ScaledSeries, maxDrawdown float64, contracts int) BlowoutResult {
	breaches := countAbove(s.Losses, maxDrawdown)
	prob := breachPercent(breaches, s.TotalObservations)
	buffer := maxDrawdown - s.WorstLoss
	exceeds := s.WorstLoss > maxDrawdown

	res := BlowoutResult{
		Breach: domain.DrawdownBreach{
			MaxDrawdown:       maxDrawdown,
			Breaches:          breaches,
			BreachProbability: Round2(prob),
			HighestExceeds:    exceeds,
			HighestLoss:       s.WorstLoss,
			Margin:            Round2(buffer),
		},
	}

	switch {
	case exceeds:
		res.Status = domain.BlowoutNOGO
		res.Probability = 100
		history := ""
		if breaches > 0 {
			history = fmt.Sprintf("Historical data shows %d day(s) (%.1f%%) had end-of-day losses exceeding your max drawdown. ", breaches, prob)
		}
		res.Message = fmt.Sprintf("HIGH RISK: With your current contract size (%d), the worst historical end-of-day loss ($%.2f) exceeds your max drawdown by $%.2f. %sAccount blowout risk is HIGH.",
			contracts, s.WorstLoss, -buffer, history)
	case prob > NoGoBreachPct:
		res.Status = domain.BlowoutNOGO
		res.Probability = prob
		res.Message = fmt.Sprintf("HIGH RISK: Historical data shows %d days (%.1f%%) had end-of-day losses exceeding your max drawdown with %d contract(s). Account blowout risk is HIGH.",
			breaches, prob, contracts)
	case prob > CautionBreachPct:
		res.Status = domain.BlowoutCaution
		res.Probability = prob
		res.Message = fmt.Sprintf("MODERATE RISK: Historical data shows %d day(s) (%.1f%%) had end-of-day losses exceeding your max drawdown with %d contract(s). Monitor closely.",
			breaches, prob, contracts)
	case breaches == 0:
		res.Status = domain.BlowoutGO
		res.Probability = 0
		res.Message = fmt.Sprintf("SAFE: No historical end-of-day losses (with your current contract size of %d) exceeded your max drawdown. You have $%.2f buffer above highest loss.",
			contracts, buffer)
	default:
		res.Status = domain.BlowoutGO
		res.Probability = prob
		res.Message = fmt.Sprintf("SAFE: Very low probability (%.2f%%) of end-of-day losses exceeding max drawdown based on historical data with %d contract(s).",
			prob, contracts)
	}
	return res
}
