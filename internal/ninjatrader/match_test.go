package ninjatrader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risklo/internal/domain"
)

func TestMatch(t *testing.T) {
	accounts, err := ParseAccounts(strings.NewReader(accountsCSV))
	require.NoError(t, err)
	strategies, err := ParseStrategies(strings.NewReader(strategiesCSV))
	require.NoError(t, err)

	rows := Match(accounts, strategies, []string{"Momentum", "nq scalper v2", "TREND"})
	require.Len(t, rows, 4)

	assert.Equal(t, 1, rows[0].AccountNumber)
	assert.Equal(t, "PA-APEX-001", rows[0].AccountName)
	assert.Equal(t, "nq scalper v2", rows[0].Strategy, "sheet containing the strategy name")
	assert.Equal(t, domain.ContractMNQ, rows[0].ContractType)
	assert.Equal(t, 3, rows[0].Contracts)
	assert.Equal(t, 50123.45, rows[0].CurrentBalance)
	assert.Equal(t, 2000.0, rows[0].TrailingMaxDrawdown)
	assert.Equal(t, 1500.0, rows[0].SafetyNet)

	assert.Equal(t, 2, rows[1].AccountNumber)
	assert.Equal(t, "TREND", rows[1].Strategy)
	assert.Equal(t, domain.ContractNQ, rows[1].ContractType)

	assert.Equal(t, "Breakout", rows[2].Strategy, "unmatched names are kept")
	assert.Equal(t, -150.25, rows[2].TrailingMaxDrawdown)
	assert.True(t, rows[2].Blown())

	empty := rows[3]
	assert.Equal(t, 4, empty.AccountNumber)
	assert.Equal(t, "PA-APEX-004", empty.AccountName)
	assert.Empty(t, empty.Strategy)
	assert.Equal(t, domain.ContractMNQ, empty.ContractType)
	assert.Equal(t, 1, empty.Contracts)
	assert.Equal(t, float64(DefaultTrailingDrawdown), empty.TrailingMaxDrawdown)
}

func TestMatch_NoAccounts(t *testing.T) {
	assert.Empty(t, Match(nil, []Strategy{{Name: "A", AccountDisplayName: "X"}}, nil))
}

func TestMatchSheet(t *testing.T) {
	names := []string{"Alpha Trend", "Beta"}

	assert.Equal(t, "Alpha Trend", matchSheet("alpha trend", names))
	assert.Equal(t, "Alpha Trend", matchSheet("trend", names))
	assert.Equal(t, "Beta", matchSheet("Beta Long", names))
	assert.Equal(t, "Gamma", matchSheet("Gamma", names))
}
