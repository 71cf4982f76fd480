package reporting

import (
	"fmt"
	"strings"
	"time"

	"risklo/internal/decision"
	"risklo/internal/domain"
)

// Title returns the summary headline text.
func (s *Summary) Title() string {
	switch s.Headline {
	case HeadlineAllLow:
		return "All Accounts Show Low Risk"
	case HeadlineHighRisk:
		return fmt.Sprintf("High Risk Alert: %d Account(s) Require Attention", s.TotalAtRisk())
	case HeadlineMixed:
		return "Mixed Risk Profile"
	}
	return "Risk Summary"
}

// RenderMarkdown renders a bulk run summary as Markdown string.
func RenderMarkdown(s *Summary) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", s.Title()))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", s.GeneratedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Risk mode: %s | Accounts: %d\n\n", modeLabel(s.RiskMode), s.Total))

	// Counts
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Category | Accounts |\n")
	sb.WriteString("|----------|----------|\n")
	sb.WriteString(fmt.Sprintf("| Low Risk | %d |\n", s.LowCount))
	sb.WriteString(fmt.Sprintf("| High Risk | %d |\n", s.HighCount))
	sb.WriteString(fmt.Sprintf("| No Go | %d |\n", s.NoGoCount))
	sb.WriteString(fmt.Sprintf("| Blown | %d |\n", s.BlownCount))
	sb.WriteString("\n")

	if len(s.Blown) > 0 {
		sb.WriteString("## Blown Accounts\n\n")
		for _, b := range s.Blown {
			sb.WriteString(fmt.Sprintf("- %s (%s): trailing drawdown %s\n", b.Name, b.Strategy, formatMoney(b.TrailingMaxDD)))
		}
		sb.WriteString("\n")
	}

	if len(s.Actions) > 0 {
		sb.WriteString("## Accounts Requiring Action\n\n")
		for _, a := range s.Actions {
			sb.WriteString(fmt.Sprintf("- **%s** (%s): %s, risk score %s\n", a.Name, a.Strategy, a.Level, a.Score))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("**Recommended:** %s\n\n", RecommendedAction))
	}

	// Table
	sb.WriteString("## Accounts\n\n")
	if len(s.Rows) == 0 {
		sb.WriteString("No accounts analyzed.\n")
		return sb.String()
	}
	sb.WriteString("| Account | Strategy | Size | Balance | Trailing DD | Score | Level | Go/No Go |\n")
	sb.WriteString("|---------|----------|------|---------|-------------|-------|-------|----------|\n")
	for _, r := range s.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d %s | %s | %s | %s | %s | %s |\n",
			escapeCell(r.Account),
			escapeCell(r.Strategy),
			r.Contracts, r.Contract,
			r.Balance,
			r.MaxDrawdown,
			r.Score,
			r.Level,
			r.Verdict,
		))
	}

	var failed []SummaryRow
	for _, r := range s.Rows {
		if r.Error != "" {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("\n## Errors\n\n")
		for _, r := range failed {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", r.Account, r.Error))
		}
	}

	return sb.String()
}

// RenderAnalysis renders a single stored analysis as Markdown string.
func RenderAnalysis(rec *domain.AnalysisRecord) string {
	var sb strings.Builder
	m := rec.Metrics
	cfg := rec.Config

	sb.WriteString(fmt.Sprintf("# %s\n\n", rec.SheetName))
	sb.WriteString(fmt.Sprintf("Analysis: %s\n\n", rec.ID))
	sb.WriteString(fmt.Sprintf("Position: %d %s on %s\n\n", cfg.Contracts, cfg.ContractType, formatMoney(cfg.AccountSize)))

	sb.WriteString("## Risk\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Risk Score | %d (%s) |\n", m.RiskScore, m.RiskLevel))
	sb.WriteString(fmt.Sprintf("| Blowout | %s |\n", m.BlowAccountStatus))
	if p, ok := m.BlowAccountProbability.Get(); ok {
		sb.WriteString(fmt.Sprintf("| Blowout Probability | %.2f%% |\n", p))
	}
	sb.WriteString(fmt.Sprintf("| Highest Loss | %s |\n", formatMoney(m.HighestLoss)))
	sb.WriteString(fmt.Sprintf("| Average Loss | %s |\n", formatMoney(m.AvgLoss)))
	sb.WriteString(fmt.Sprintf("| Max Profit | %s |\n", formatMoney(m.MaxProfit)))
	sb.WriteString(fmt.Sprintf("| Average Profit | %s |\n", formatMoney(m.AvgProfit)))
	sb.WriteString(fmt.Sprintf("| Days (losing/winning/total) | %d / %d / %d |\n", m.LosingDays, m.WinningDays, m.TotalDays))
	sb.WriteString("\n")
	if m.BlowAccountMessage != "" {
		sb.WriteString(m.BlowAccountMessage + "\n\n")
	}

	if d, ok := m.DrawdownBreach.Get(); ok {
		sb.WriteString("## Drawdown\n\n")
		sb.WriteString(fmt.Sprintf("Limit %s, %d breach(es), margin %s\n\n", formatMoney(d.MaxDrawdown), d.Breaches, formatMoney(d.Margin)))
	}
	if a, ok := m.ApexMaeComparison.Get(); ok {
		sb.WriteString("## Apex MAE\n\n")
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", a.MaeStatus, a.MaeMessage))
	}
	if w, ok := m.WindfallRule.Get(); ok {
		sb.WriteString("## Windfall Rule\n\n")
		sb.WriteString(fmt.Sprintf("%s: %s\n", w.WindfallStatus, w.WindfallMessage))
		if w.MaxProfitTodayMessage != "" {
			sb.WriteString(w.MaxProfitTodayMessage + "\n")
		}
		sb.WriteString("\n")
	}

	checklist := decision.NewEvaluator().Evaluate(rec.SheetName, m)
	sb.WriteString("## Checks\n\n")
	sb.WriteString("| Check | Threshold | Actual | Pass |\n")
	sb.WriteString("|-------|-----------|--------|------|\n")
	for _, c := range checklist.Checks {
		pass := "PASS"
		if !c.Pass {
			pass = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.Name, c.Threshold, c.Actual, pass))
	}
	sb.WriteString(fmt.Sprintf("\n%d/%d checks passed\n", len(checklist.Checks)-len(checklist.Failed()), len(checklist.Checks)))

	return sb.String()
}

func modeLabel(m domain.RiskMode) string {
	if m == domain.RiskModeApexMae {
		return "Apex MAE"
	}
	return "Trailing Drawdown"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
