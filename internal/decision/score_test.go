package decision

import (
	"testing"

	"risklo/internal/domain"
)

func TestComposeScore(t *testing.T) {
	tests := []struct {
		name        string
		series      domain.ScaledSeries
		accountSize float64
		maxDrawdown domain.Option[float64]
		wantScore   int
		wantLevel   domain.RiskLevel
	}{
		{
			name:        "small loss with drawdown limit",
			series:      domain.ScaledSeries{WorstLoss: 400, AvgLoss: 233.33},
			accountSize: 50000,
			maxDrawdown: domain.Some(500.0),
			wantScore:   40,
			wantLevel:   domain.RiskLow,
		},
		{
			name:        "drawdown usage capped",
			series:      domain.ScaledSeries{WorstLoss: 1000, AvgLoss: 100},
			accountSize: 50000,
			maxDrawdown: domain.Some(500.0),
			wantScore:   51,
			wantLevel:   domain.RiskModerate,
		},
		{
			name:        "no limit counts exposure twice",
			series:      domain.ScaledSeries{WorstLoss: 2500, AvgLoss: 500},
			accountSize: 50000,
			maxDrawdown: domain.None[float64](),
			wantScore:   5,
			wantLevel:   domain.RiskLow,
		},
		{
			name:        "average loss escalates",
			series:      domain.ScaledSeries{WorstLoss: 3000, AvgLoss: 2600},
			accountSize: 50000,
			maxDrawdown: domain.None[float64](),
			wantScore:   6,
			wantLevel:   domain.RiskHigh,
		},
		{
			name:        "worst loss above ten percent",
			series:      domain.ScaledSeries{WorstLoss: 5500, AvgLoss: 100},
			accountSize: 50000,
			maxDrawdown: domain.None[float64](),
			wantScore:   11,
			wantLevel:   domain.RiskModerate,
		},
		{
			name:        "score clamps at 100",
			series:      domain.ScaledSeries{WorstLoss: 200000, AvgLoss: 100},
			accountSize: 50000,
			maxDrawdown: domain.Some(500.0),
			wantScore:   100,
			wantLevel:   domain.RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.PositionConfig{AccountSize: tt.accountSize, Contracts: 1, MaxDrawdown: tt.maxDrawdown}
			res := ComposeScore(tt.series, cfg)
			if res.Score != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, res.Score)
			}
			if res.Level != tt.wantLevel {
				t.Errorf("expected level %s, got %s", tt.wantLevel, res.Level)
			}
			if res.Message == "" {
				t.Error("expected message")
			}
		})
	}
}
