package decision

import (
	"fmt"

	"risklo/internal/domain"
)

// WindfallShare is the largest share of the payout balance a single day may hold.
const WindfallShare = 0.3

// EvaluateWindfall checks the best day against the 30% consistency rule.
// The result is informational and never blocks other evaluators.
func EvaluateWindfall(s domain.ScaledSeries, cfg domain.PositionConfig) domain.WindfallRule {
	if s.MaxProfit <= 0 {
		return domain.WindfallRule{
			MaxProfitPercentOfBalance: domain.Some(0.0),
			ViolatesWindfall:          domain.None[bool](),
			WindfallStatus:            domain.WindfallNoData,
			WindfallMessage:           "No profit data found in historical trading data. The windfall rule applies when you have profits: no single day may exceed 30% of your total profit balance.",
		}
	}

	maxProfit := s.MaxProfit
	minTotal := maxProfit / WindfallShare

	balance, usesPayout := cfg.ProfitSinceLastPayout.Get()
	if !usesPayout {
		balance = cfg.StartOfDayProfit.OrElse(0)
	}

	if balance <= 0 {
		return domain.WindfallRule{
			MaxProfitDay:           maxProfit,
			MinTotalProfitRequired: Round2(minTotal),
			ViolatesWindfall:       domain.None[bool](),
			WindfallStatus:         domain.WindfallInfo,
			WindfallMessage: fmt.Sprintf("Highest profit day: $%.2f. To request payout, you need at least $%.2f total profit (%.2f / 0.3). Enter your profit balance for a more accurate check.",
				maxProfit, minTotal, maxProfit),
			MaxProfitTodayMessage: "Enter your profit balance to calculate the maximum profit you can make today.",
		}
	}

	pct := maxProfit / balance * 100
	violates := pct > WindfallShare*100
	additional := 0.0
	if violates {
		additional = max(0, minTotal-balance)
	}
	today := balance * (WindfallShare / (1 - WindfallShare))

	basis := "profit balance"
	if usesPayout {
		basis = "profit since last payout"
	}

	rule := domain.WindfallRule{
		MaxProfitDay:              maxProfit,
		MinTotalProfitRequired:    Round2(minTotal),
		MaxProfitPercentOfBalance: domain.Some(Round2(pct)),
		ViolatesWindfall:          domain.Some(violates),
		WindfallStatus:            domain.WindfallSafe,
		UsesProfitSincePayout:     usesPayout,
		ProfitBalance:             domain.Some(Round2(balance)),
		AdditionalProfitNeeded:    domain.Some(Round2(additional)),
		MaxProfitTodayAllowed:     domain.Some(Round2(today)),
	}
	if violates {
		rule.WindfallStatus = domain.WindfallViolates
		rule.WindfallMessage = fmt.Sprintf("Highest profit day ($%.2f) exceeds 30%% of %s (%.2f%%). To request payout, you need at least $%.2f total profit (need $%.2f more).",
			maxProfit, basis, pct, minTotal, additional)
		rule.MaxProfitTodayMessage = fmt.Sprintf("You can make up to $%.2f today without violating the rule (if today becomes your highest day). Your historical highest day ($%.2f) already violates the rule, so you need $%.2f more total profit before requesting payout.",
			today, maxProfit, additional)
	} else {
		rule.WindfallMessage = fmt.Sprintf("Highest profit day ($%.2f) is within 30%% of %s (%.2f%%). You can request payout once you reach $%.2f total profit.",
			maxProfit, basis, pct, minTotal)
		rule.MaxProfitTodayMessage = fmt.Sprintf("You can make up to $%.2f today without violating the windfall rule (if today becomes your highest day).", today)
	}
	return rule
}
