package decision

import (
	"fmt"
	"math"

	"risklo/internal/domain"
)

// MAE limit tiers as a fraction of the base amount.
const (
	MaeLimitDefault = 0.3
	MaeLimitHigh    = 0.5 // profit at least twice the safety net
)

// MaeLimit is the Apex per-trade MAE allowance.
type MaeLimit struct {
	BaseAmount     float64
	LimitPercent   float64
	MaxMaePerTrade float64
}

// ComputeMaeLimit derives the MAE allowance from the start-of-day profit and the
// safety net. ok is false when both are zero.
func ComputeMaeLimit(profit, safetyNet float64) (MaeLimit, bool) {
	if profit == 0 && safetyNet == 0 {
		return MaeLimit{}, false
	}

	base := safetyNet
	if !(profit <= safetyNet && safetyNet > 0) && profit != 0 {
		base = profit
	}

	pct := MaeLimitDefault
	if profit >= 2*safetyNet && safetyNet > 0 {
		pct = MaeLimitHigh
	}

	return MaeLimit{
		BaseAmount:     base,
		LimitPercent:   pct,
		MaxMaePerTrade: base * pct,
	}, true
}

// EvaluateApexMae compares position-sized losses with the MAE allowance.
// Returns None when neither a start-of-day profit nor a safety net is set.
func EvaluateApexMae(s domain.ScaledSeries, cfg domain.PositionConfig) domain.Option[domain.ApexMaeComparison] {
	limit, ok := ComputeMaeLimit(cfg.StartOfDayProfit.OrElse(0), cfg.SafetyNet.OrElse(0))
	if !ok {
		return domain.None[domain.ApexMaeComparison]()
	}

	exceeds := s.WorstLoss > limit.MaxMaePerTrade
	buffer := limit.MaxMaePerTrade - s.WorstLoss
	breaches := countAbove(s.Losses, limit.MaxMaePerTrade)

	cmp := domain.ApexMaeComparison{
		BaseAmount:           limit.BaseAmount,
		LimitPercent:         limit.LimitPercent,
		MaxMaePerTrade:       limit.MaxMaePerTrade,
		ExceedsMae:           exceeds,
		MaeBuffer:            Round2(buffer),
		WorstLossForSize:     s.WorstLoss,
		MaeStatus:            domain.MaeSafe,
		MaeBreachProbability: Round2(breachPercent(breaches, s.TotalObservations)),
		MaeBreaches:          breaches,
		TotalTradingDays:     s.TotalObservations,
	}
	if exceeds {
		cmp.MaeStatus = domain.MaeExceeds
		cmp.MaeMessage = fmt.Sprintf("Historical worst loss ($%.2f) exceeds Apex MAE limit ($%.2f) by $%.2f",
			s.WorstLoss, limit.MaxMaePerTrade, math.Abs(buffer))
	} else {
		cmp.MaeMessage = fmt.Sprintf("Historical worst loss ($%.2f) is within Apex MAE limit ($%.2f). Buffer: $%.2f",
			s.WorstLoss, limit.MaxMaePerTrade, buffer)
	}
	return domain.Some(cmp)
}

// BlowoutFromMae derives the blowout verdict from an MAE comparison, used when
// no trailing drawdown limit was supplied.
func BlowoutFromMae(cmp domain.ApexMaeComparison) BlowoutResult {
	res := BlowoutResult{Probability: cmp.MaeBreachProbability}
	if cmp.ExceedsMae {
		res.Status = domain.BlowoutNOGO
		history := ""
		if cmp.MaeBreaches > 0 {
			history = fmt.Sprintf("Historical data shows %d day(s) (%.1f%%) exceeded the MAE limit. ", cmp.MaeBreaches, cmp.MaeBreachProbability)
		}
		res.Message = fmt.Sprintf("HIGH RISK: Historical worst loss ($%.2f) exceeds Apex MAE limit ($%.2f) by $%.2f. %sAccount blowout risk is HIGH.",
			cmp.WorstLossForSize, cmp.MaxMaePerTrade, math.Abs(cmp.MaeBuffer), history)
		return res
	}
	res.Status = domain.BlowoutGO
	res.Message = fmt.Sprintf("SAFE: Historical worst loss ($%.2f) is within Apex MAE limit ($%.2f). Buffer: $%.2f.",
		cmp.WorstLossForSize, cmp.MaxMaePerTrade, cmp.MaeBuffer)
	return res
}
