package metrics

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risklo/internal/domain"
)

// scenarioRows is a sheet whose losses are [100, 200, 50] per contract.
func scenarioRows() []domain.SheetRow {
	return []domain.SheetRow{
		{"Strategy"},
		{"Week", "", "Mon", "Tue", "Wed", "Thu", "Fri"},
		{"01/06", "", "-100", "-200", "-50"},
	}
}

func riskConfig(maxDrawdown float64) domain.PositionConfig {
	return domain.PositionConfig{
		SheetName:    "Alpha",
		AccountSize:  50000,
		Contracts:    2,
		ContractType: domain.ContractNQ,
		MaxDrawdown:  domain.Some(maxDrawdown),
	}
}

func TestCompute_RiskModeSafe(t *testing.T) {
	m, err := Compute(scenarioRows(), riskConfig(500))
	require.NoError(t, err)

	assert.Equal(t, 400.0, m.HighestLoss)
	assert.Equal(t, domain.BlowoutGO, m.BlowAccountStatus)
	assert.Equal(t, domain.ColorGreen, m.BlowAccountColor)
	assert.Equal(t, 0.0, m.BlowAccountProbability.OrElse(-1))

	breach, ok := m.DrawdownBreach.Get()
	require.True(t, ok)
	assert.Equal(t, 0, breach.Breaches)
	assert.Equal(t, 100.0, breach.Margin)

	assert.Equal(t, 40, m.RiskScore)
	assert.Equal(t, domain.RiskLow, m.RiskLevel)
	assert.Equal(t, 3, m.TotalDays)
	assert.Equal(t, 3, m.LosingDays)
	assert.Equal(t, 0, m.WinningDays)
	assert.Equal(t, 0.8, m.HighestLossPercent)
	assert.Equal(t, 200.0, m.HighestLossPerContract)
}

func TestCompute_RiskModeCatastrophic(t *testing.T) {
	m, err := Compute(scenarioRows(), riskConfig(300))
	require.NoError(t, err)

	assert.Equal(t, domain.BlowoutNOGO, m.BlowAccountStatus)
	assert.Equal(t, domain.ColorRed, m.BlowAccountColor)
	assert.Equal(t, 100.0, m.BlowAccountProbability.OrElse(-1))

	breach, ok := m.DrawdownBreach.Get()
	require.True(t, ok)
	assert.Equal(t, -100.0, breach.Margin)
	assert.True(t, breach.HighestExceeds)
}

func TestCompute_ApexTiers(t *testing.T) {
	tests := []struct {
		name           string
		profit, net    float64
		base, pct, mae float64
	}{
		{"thirty percent tier", 500, 2500, 2500, 0.3, 750},
		{"fifty percent tier", 5000, 2500, 5000, 0.5, 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := riskConfig(500)
			cfg.StartOfDayProfit = domain.Some(tt.profit)
			cfg.SafetyNet = domain.Some(tt.net)

			m, err := Compute(scenarioRows(), cfg)
			require.NoError(t, err)

			cmp, ok := m.ApexMaeComparison.Get()
			require.True(t, ok)
			assert.Equal(t, tt.base, cmp.BaseAmount)
			assert.Equal(t, tt.pct, cmp.LimitPercent)
			assert.Equal(t, tt.mae, cmp.MaxMaePerTrade)

			// drawdown limit still drives the blowout verdict
			assert.True(t, m.DrawdownBreach.IsSome())
			assert.Equal(t, domain.BlowoutGO, m.BlowAccountStatus)
		})
	}
}

func TestCompute_ApexOnlyDerivesBlowoutFromMae(t *testing.T) {
	cfg := domain.PositionConfig{
		AccountSize:      50000,
		Contracts:        2,
		ContractType:     domain.ContractNQ,
		StartOfDayProfit: domain.Some(500.0),
		SafetyNet:        domain.Some(1000.0),
	}

	m, err := Compute(scenarioRows(), cfg)
	require.NoError(t, err)

	assert.False(t, m.DrawdownBreach.IsSome())
	cmp, ok := m.ApexMaeComparison.Get()
	require.True(t, ok)
	assert.Equal(t, 300.0, cmp.MaxMaePerTrade)
	assert.True(t, cmp.ExceedsMae)

	assert.Equal(t, domain.BlowoutNOGO, m.BlowAccountStatus)
	assert.InDelta(t, 33.33, m.BlowAccountProbability.OrElse(-1), 1e-9)
}

func TestCompute_ExhaustedDrawdownStaysUnknown(t *testing.T) {
	row := domain.PositionRow{
		AccountName:         "APEX-9",
		Strategy:            "Alpha",
		ContractType:        domain.ContractNQ,
		Contracts:           2,
		CurrentBalance:      50000,
		TrailingMaxDrawdown: -150.25,
		StartOfDayProfit:    500,
		SafetyNet:           1000,
	}

	m, err := Compute(scenarioRows(), row.Config())
	require.NoError(t, err)

	cmp, ok := m.ApexMaeComparison.Get()
	require.True(t, ok)
	assert.True(t, cmp.ExceedsMae)

	assert.False(t, m.DrawdownBreach.IsSome())
	assert.Equal(t, domain.BlowoutUnknown, m.BlowAccountStatus)
	assert.Equal(t, domain.ColorGray, m.BlowAccountColor)
	assert.False(t, m.BlowAccountProbability.IsSome())
}

func TestCompute_NoLimitIsUnknown(t *testing.T) {
	cfg := domain.PositionConfig{AccountSize: 50000, Contracts: 1}

	m, err := Compute(scenarioRows(), cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.BlowoutUnknown, m.BlowAccountStatus)
	assert.Equal(t, domain.ColorGray, m.BlowAccountColor)
	assert.False(t, m.BlowAccountProbability.IsSome())
	assert.False(t, m.ApexMaeComparison.IsSome())
	assert.Equal(t, domain.ContractNQ, m.ContractType)

	rule, ok := m.WindfallRule.Get()
	require.True(t, ok)
	assert.Equal(t, domain.WindfallNoData, rule.WindfallStatus)
}

func TestCompute_WindfallViolation(t *testing.T) {
	rows := append(scenarioRows(), domain.SheetRow{"01/13", "", "750", "300"})
	cfg := riskConfig(500)
	cfg.ProfitSinceLastPayout = domain.Some(4000.0)

	m, err := Compute(rows, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1500.0, m.MaxProfit)
	rule, ok := m.WindfallRule.Get()
	require.True(t, ok)
	assert.Equal(t, domain.WindfallViolates, rule.WindfallStatus)
	assert.Equal(t, 37.5, rule.MaxProfitPercentOfBalance.OrElse(0))
	assert.Equal(t, true, rule.ViolatesWindfall.OrElse(false))
	assert.Equal(t, 5000.0, rule.MinTotalProfitRequired)
	assert.Equal(t, 3.0, m.MaxProfitPercent)
}

func TestCompute_MicroContracts(t *testing.T) {
	cfg := riskConfig(500)
	cfg.ContractType = domain.ContractMNQ
	cfg.Contracts = 5

	m, err := Compute(scenarioRows(), cfg)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, m.HighestLoss, 1e-9)
	assert.InDelta(t, 20.0, m.HighestLossPerContract, 1e-9)
	assert.Equal(t, domain.ContractMNQ, m.ContractType)
}

func TestCompute_AllZeroSheet(t *testing.T) {
	rows := []domain.SheetRow{
		{"Strategy"},
		{"Week"},
		{"01/06", "", "0", "0", "0", "0", "0"},
		{"01/13", "", "0", "$0.00", "", "0"},
	}

	_, err := Compute(rows, riskConfig(500))

	var noData *domain.NoTradingDataError
	require.True(t, errors.As(err, &noData))
	assert.Equal(t, 2, noData.TotalRows)
	assert.Len(t, noData.SampleRows, 2)
}

func TestCompute_InvalidInput(t *testing.T) {
	cfg := riskConfig(500)
	cfg.Contracts = 0

	_, err := Compute(scenarioRows(), cfg)

	var inputErr *domain.InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "contracts", inputErr.Field)
}

func TestCompute_Idempotent(t *testing.T) {
	rows := append(scenarioRows(), domain.SheetRow{"01/13", "", "$1,250.75", "-333.33", "12.5", "0", "(40)"})
	cfg := riskConfig(800)
	cfg.StartOfDayProfit = domain.Some(1800.0)
	cfg.SafetyNet = domain.Some(1500.0)

	first, err := Compute(rows, cfg)
	require.NoError(t, err)
	second, err := Compute(rows, cfg)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCompute_JSONShape(t *testing.T) {
	m, err := Compute(scenarioRows(), domain.PositionConfig{AccountSize: 50000, Contracts: 1})
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Nil(t, decoded["drawdownBreach"])
	assert.Nil(t, decoded["apexMaeComparison"])
	assert.Nil(t, decoded["blowAccountProbability"])
	assert.NotNil(t, decoded["windfallRule"])
	for _, key := range []string{
		"highestLoss", "highestLossPercent", "avgLoss", "avgLossPercent",
		"maxProfit", "maxProfitPercent", "avgProfit", "avgProfitPercent",
		"highestLossPerContract", "avgLossPerContract", "maxProfitPerContract", "avgProfitPerContract",
		"numContracts", "riskScore", "riskLevel", "riskColor", "riskMessage",
		"totalDays", "losingDays", "winningDays",
		"blowAccountStatus", "blowAccountColor", "blowAccountMessage", "contractType",
	} {
		assert.Contains(t, decoded, key)
	}
}

func TestCheckFinite(t *testing.T) {
	err := checkFinite(domain.RiskMetrics{AvgLoss: math.NaN()})
	require.ErrorIs(t, err, ErrNonFiniteMetric)
	assert.Contains(t, err.Error(), "avgLoss")

	err = checkFinite(domain.RiskMetrics{
		WindfallRule: domain.Some(domain.WindfallRule{MaxProfitTodayAllowed: domain.Some(math.Inf(1))}),
	})
	require.ErrorIs(t, err, ErrNonFiniteMetric)

	assert.NoError(t, checkFinite(domain.RiskMetrics{}))
}
