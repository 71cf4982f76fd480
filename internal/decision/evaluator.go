package decision

import (
	"fmt"

	"risklo/internal/domain"
)

// Evaluator turns assembled metrics into a checklist.
type Evaluator struct{}

// NewEvaluator creates a new checklist evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate lists every check that applies to the metrics.
// Drawdown, MAE and windfall checks are present only when their results are.
func (e *Evaluator) Evaluate(sheetName string, m domain.RiskMetrics) *Checklist {
	var checks []CriterionResult

	if b, ok := m.DrawdownBreach.Get(); ok {
		checks = append(checks,
			CriterionResult{
				Name:      "Worst loss within trailing drawdown",
				Threshold: fmt.Sprintf("<= $%.2f", b.MaxDrawdown),
				Actual:    fmt.Sprintf("$%.2f", b.HighestLoss),
				Pass:      !b.HighestExceeds,
			},
			CriterionResult{
				Name:      "Drawdown breach probability",
				Threshold: fmt.Sprintf("<= %.0f%%", NoGoBreachPct),
				Actual:    fmt.Sprintf("%.2f%% (%d days)", b.BreachProbability, b.Breaches),
				Pass:      b.BreachProbability <= NoGoBreachPct,
			},
		)
	}

	if mae, ok := m.ApexMaeComparison.Get(); ok {
		checks = append(checks, CriterionResult{
			Name:      "Worst loss within Apex MAE limit",
			Threshold: fmt.Sprintf("<= $%.2f (%.0f%% of $%.2f)", mae.MaxMaePerTrade, mae.LimitPercent*100, mae.BaseAmount),
			Actual:    fmt.Sprintf("$%.2f", mae.WorstLossForSize),
			Pass:      !mae.ExceedsMae,
		})
	}

	if w, ok := m.WindfallRule.Get(); ok {
		if violates, known := w.ViolatesWindfall.Get(); known {
			checks = append(checks, CriterionResult{
				Name:      "Windfall consistency",
				Threshold: "<= 30% of balance",
				Actual:    fmt.Sprintf("%.2f%%", w.MaxProfitPercentOfBalance.OrElse(0)),
				Pass:      !violates,
			})
		}
	}

	checks = append(checks,
		CriterionResult{
			Name:      "Worst loss share of account",
			Threshold: "<= 20%",
			Actual:    fmt.Sprintf("%.2f%%", m.HighestLossPercent),
			Pass:      m.HighestLossPercent <= 20,
		},
		CriterionResult{
			Name:      "Average loss share of account",
			Threshold: "<= 5%",
			Actual:    fmt.Sprintf("%.2f%%", m.AvgLossPercent),
			Pass:      m.AvgLossPercent <= 5,
		},
		CriterionResult{
			Name:      "Risk score",
			Threshold: "<= 70",
			Actual:    fmt.Sprintf("%d", m.RiskScore),
			Pass:      m.RiskScore <= 70,
		},
	)

	return &Checklist{
		SheetName: sheetName,
		Status:    m.BlowAccountStatus,
		Level:     m.RiskLevel,
		Score:     m.RiskScore,
		Checks:    checks,
	}
}
