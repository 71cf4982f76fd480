package domain

import (
	"fmt"
	"math"
)

// PositionConfig describes the account and position a strategy is evaluated against.
type PositionConfig struct {
	SheetName    string       `json:"sheetName"`
	AccountSize  float64      `json:"accountSize"`
	Contracts    int          `json:"contracts"`
	ContractType ContractType `json:"contractType"`

	// Trailing drawdown limit (risk mode)
	MaxDrawdown Option[float64] `json:"maxDrawdown"`
	// DrawdownExhausted marks an account whose trailing drawdown is already
	// used up. Blowout status then stays unknown.
	DrawdownExhausted bool `json:"drawdownExhausted,omitempty"`

	// Apex inputs
	StartOfDayProfit      Option[float64] `json:"startOfDayProfit"`
	SafetyNet             Option[float64] `json:"safetyNet"`
	ProfitSinceLastPayout Option[float64] `json:"profitSinceLastPayout"`
}

// Validate checks the config and fills the default contract type.
func (c *PositionConfig) Validate() error {
	if c.ContractType == "" {
		c.ContractType = ContractNQ
	}
	if !c.ContractType.Valid() {
		return &InvalidInputError{
			Field:   "contractType",
			Message: fmt.Sprintf("contractType must be NQ or MNQ, got %q", c.ContractType),
		}
	}
	if !finite(c.AccountSize) || c.AccountSize <= 0 {
		return &InvalidInputError{Field: "accountSize", Message: "accountSize must be a positive number"}
	}
	if c.Contracts <= 0 {
		return &InvalidInputError{Field: "contracts", Message: "contracts must be a positive integer"}
	}
	if v, ok := c.MaxDrawdown.Get(); ok && (!finite(v) || v <= 0) {
		return &InvalidInputError{Field: "maxDrawdown", Message: "maxDrawdown must be greater than zero when supplied"}
	}
	for _, f := range []struct {
		name string
		val  Option[float64]
	}{
		{"startOfDayProfit", c.StartOfDayProfit},
		{"safetyNet", c.SafetyNet},
		{"profitSinceLastPayout", c.ProfitSinceLastPayout},
	} {
		if v, ok := f.val.Get(); ok && !finite(v) {
			return &InvalidInputError{Field: f.name, Message: f.name + " must be a finite number"}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
