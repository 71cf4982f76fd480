package decision

import (
	"strings"
	"testing"

	"risklo/internal/domain"
)

func TestEvaluator_AllPass(t *testing.T) {
	m := domain.RiskMetrics{
		HighestLossPercent: 0.8,
		AvgLossPercent:     0.47,
		RiskScore:          40,
		RiskLevel:          domain.RiskLow,
		BlowAccountStatus:  domain.BlowoutGO,
		DrawdownBreach: domain.Some(domain.DrawdownBreach{
			MaxDrawdown: 500, HighestLoss: 400, Margin: 100,
		}),
	}

	c := NewEvaluator().Evaluate("Alpha", m)

	if len(c.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(c.Checks))
	}
	if len(c.Failed()) != 0 {
		t.Errorf("expected no failures, got %v", c.Failed())
	}
	if c.Status != domain.BlowoutGO {
		t.Errorf("expected GO, got %s", c.Status)
	}
}

func TestEvaluator_Failures(t *testing.T) {
	m := domain.RiskMetrics{
		HighestLossPercent: 24,
		AvgLossPercent:     1,
		RiskScore:          62,
		RiskLevel:          domain.RiskHigh,
		BlowAccountStatus:  domain.BlowoutNOGO,
		ApexMaeComparison: domain.Some(domain.ApexMaeComparison{
			BaseAmount: 2500, LimitPercent: 0.3, MaxMaePerTrade: 750,
			WorstLossForSize: 1200, ExceedsMae: true,
		}),
		WindfallRule: domain.Some(domain.WindfallRule{
			MaxProfitPercentOfBalance: domain.Some(37.5),
			ViolatesWindfall:          domain.Some(true),
		}),
	}

	c := NewEvaluator().Evaluate("Beta", m)

	failed := c.Failed()
	if len(failed) != 3 {
		t.Fatalf("expected 3 failures, got %d: %v", len(failed), failed)
	}
	names := []string{failed[0].Name, failed[1].Name, failed[2].Name}
	want := []string{"Worst loss within Apex MAE limit", "Windfall consistency", "Worst loss share of account"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("failure %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestEvaluator_UnknownWindfallSkipped(t *testing.T) {
	m := domain.RiskMetrics{
		WindfallRule: domain.Some(domain.WindfallRule{WindfallStatus: domain.WindfallInfo}),
	}

	c := NewEvaluator().Evaluate("", m)
	for _, r := range c.Checks {
		if r.Name == "Windfall consistency" {
			t.Error("windfall check should be skipped when the balance is unknown")
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	c := &Checklist{
		SheetName: "Alpha",
		Status:    domain.BlowoutNOGO,
		Level:     domain.RiskHigh,
		Score:     80,
		Checks: []CriterionResult{
			{Name: "Risk score", Threshold: "<= 70", Actual: "80", Pass: false},
			{Name: "Average loss share of account", Threshold: "<= 5%", Actual: "1.00%", Pass: true},
		},
	}

	md := RenderMarkdown(c)

	for _, want := range []string{
		"# Risk Report",
		"Strategy: Alpha",
		"## Status: NO_GO",
		"| 1 | Risk score | <= 70 | 80 | FAIL |",
		"| 2 | Average loss share of account | <= 5% | 1.00% | PASS |",
		"Checks: 1/2 passed",
		"- Risk score (actual: 80, threshold: <= 70)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
