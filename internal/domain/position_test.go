package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() PositionConfig {
	return PositionConfig{
		SheetName:    "Alpha",
		AccountSize:  50000,
		Contracts:    2,
		ContractType: ContractNQ,
	}
}

func TestPositionConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *PositionConfig)
		field  string
	}{
		{"zero account size", func(c *PositionConfig) { c.AccountSize = 0 }, "accountSize"},
		{"negative account size", func(c *PositionConfig) { c.AccountSize = -1 }, "accountSize"},
		{"NaN account size", func(c *PositionConfig) { c.AccountSize = math.NaN() }, "accountSize"},
		{"zero contracts", func(c *PositionConfig) { c.Contracts = 0 }, "contracts"},
		{"zero drawdown", func(c *PositionConfig) { c.MaxDrawdown = Some(0.0) }, "maxDrawdown"},
		{"negative drawdown", func(c *PositionConfig) { c.MaxDrawdown = Some(-10.0) }, "maxDrawdown"},
		{"bad contract type", func(c *PositionConfig) { c.ContractType = "ES" }, "contractType"},
		{"infinite safety net", func(c *PositionConfig) { c.SafetyNet = Some(math.Inf(1)) }, "safetyNet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestPositionConfig_ValidateDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ContractType = ""
	cfg.MaxDrawdown = Some(500.0)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ContractNQ, cfg.ContractType)
}

func TestParseContractType(t *testing.T) {
	for in, want := range map[string]ContractType{
		"":          ContractNQ,
		"nq":        ContractNQ,
		"MNQ":       ContractMNQ,
		"MNQ 12-25": ContractMNQ,
		" NQ 03-26": ContractNQ,
	} {
		got, err := ParseContractType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseContractType("ES")
	assert.Error(t, err)
}

func TestPositionRow_Config(t *testing.T) {
	row := PositionRow{
		AccountName:         "APEX-1",
		Strategy:            "Alpha",
		ContractType:        ContractMNQ,
		Contracts:           3,
		CurrentBalance:      51200,
		TrailingMaxDrawdown: 2300,
		StartOfDayProfit:    1200,
		SafetyNet:           1500,
	}

	cfg := row.Config()
	assert.Equal(t, 51200.0, cfg.AccountSize)
	assert.Equal(t, 2300.0, cfg.MaxDrawdown.OrElse(0))
	assert.Equal(t, 1200.0, cfg.ProfitSinceLastPayout.OrElse(0))
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.DrawdownExhausted)

	row.TrailingMaxDrawdown = -50
	assert.True(t, row.Blown())
	blown := row.Config()
	assert.False(t, blown.MaxDrawdown.IsSome())
	assert.True(t, blown.DrawdownExhausted)
	require.NoError(t, blown.Validate())
}
