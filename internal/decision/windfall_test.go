package decision

import (
	"testing"

	"risklo/internal/domain"
)

func profitSeries(maxProfit float64) domain.ScaledSeries {
	return domain.ScaledSeries{Profits: []float64{maxProfit}, MaxProfit: maxProfit, TotalObservations: 1}
}

func TestEvaluateWindfall_Violation(t *testing.T) {
	cfg := domain.PositionConfig{AccountSize: 50000, Contracts: 1, ProfitSinceLastPayout: domain.Some(4000.0)}

	rule := EvaluateWindfall(profitSeries(1500), cfg)

	if rule.WindfallStatus != domain.WindfallViolates {
		t.Errorf("expected VIOLATES, got %s", rule.WindfallStatus)
	}
	if v, ok := rule.ViolatesWindfall.Get(); !ok || !v {
		t.Error("expected violatesWindfall true")
	}
	if pct := rule.MaxProfitPercentOfBalance.OrElse(-1); pct != 37.5 {
		t.Errorf("expected 37.5%%, got %f", pct)
	}
	if rule.MinTotalProfitRequired != 5000 {
		t.Errorf("expected min total 5000, got %f", rule.MinTotalProfitRequired)
	}
	if got := rule.AdditionalProfitNeeded.OrElse(-1); got != 1000 {
		t.Errorf("expected 1000 more profit needed, got %f", got)
	}
	if !rule.UsesProfitSincePayout {
		t.Error("expected usesProfitSincePayout")
	}
}

func TestEvaluateWindfall_SafeFallsBackToStartOfDayProfit(t *testing.T) {
	cfg := domain.PositionConfig{AccountSize: 50000, Contracts: 1, StartOfDayProfit: domain.Some(7000.0)}

	rule := EvaluateWindfall(profitSeries(1400), cfg)

	if rule.WindfallStatus != domain.WindfallSafe {
		t.Errorf("expected SAFE, got %s", rule.WindfallStatus)
	}
	if rule.UsesProfitSincePayout {
		t.Error("expected start-of-day profit basis")
	}
	if got := rule.AdditionalProfitNeeded.OrElse(-1); got != 0 {
		t.Errorf("expected no additional profit, got %f", got)
	}
	if got := rule.MaxProfitTodayAllowed.OrElse(-1); got != 3000 {
		t.Errorf("expected 3000 allowed today, got %f", got)
	}
}

func TestEvaluateWindfall_UnknownBalance(t *testing.T) {
	cfg := domain.PositionConfig{AccountSize: 50000, Contracts: 1, StartOfDayProfit: domain.Some(-200.0)}

	rule := EvaluateWindfall(profitSeries(600), cfg)

	if rule.WindfallStatus != domain.WindfallInfo {
		t.Errorf("expected INFO, got %s", rule.WindfallStatus)
	}
	if rule.ViolatesWindfall.IsSome() {
		t.Error("expected violatesWindfall to be unknown")
	}
	if rule.MaxProfitPercentOfBalance.IsSome() {
		t.Error("expected no percent of balance")
	}
	if rule.MinTotalProfitRequired != 2000 {
		t.Errorf("expected min total 2000, got %f", rule.MinTotalProfitRequired)
	}
}

func TestEvaluateWindfall_EmptyPayoutBalanceIsInfo(t *testing.T) {
	cfg := domain.PositionConfig{
		AccountSize:           50000,
		Contracts:             1,
		StartOfDayProfit:      domain.Some(3000.0),
		ProfitSinceLastPayout: domain.Some(0.0),
	}

	rule := EvaluateWindfall(profitSeries(600), cfg)

	if rule.WindfallStatus != domain.WindfallInfo {
		t.Errorf("expected INFO, got %s", rule.WindfallStatus)
	}
	if rule.UsesProfitSincePayout {
		t.Error("expected usesProfitSincePayout false without a usable balance")
	}
	if rule.ProfitBalance.IsSome() {
		t.Error("expected no profit balance")
	}
}

func TestEvaluateWindfall_NoProfits(t *testing.T) {
	cfg := domain.PositionConfig{AccountSize: 50000, Contracts: 1, StartOfDayProfit: domain.Some(1000.0)}

	rule := EvaluateWindfall(scaled(2, 100, 50), cfg)

	if rule.WindfallStatus != domain.WindfallNoData {
		t.Errorf("expected NO_DATA, got %s", rule.WindfallStatus)
	}
	if rule.MaxProfitDay != 0 || rule.MinTotalProfitRequired != 0 {
		t.Error("expected zero numerics")
	}
	if rule.ViolatesWindfall.IsSome() {
		t.Error("expected violatesWindfall None")
	}
}
