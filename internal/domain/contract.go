package domain

import (
	"fmt"
	"strings"
)

// ContractType identifies the futures contract a strategy is traded with.
type ContractType string

const (
	ContractNQ  ContractType = "NQ"  // E-mini Nasdaq-100, the size sheets are authored in
	ContractMNQ ContractType = "MNQ" // Micro E-mini, one tenth of NQ
)

// Multiplier converts an NQ-authored per-contract value into this contract's size.
func (c ContractType) Multiplier() float64 {
	if c == ContractMNQ {
		return 0.1
	}
	return 1.0
}

// Valid reports whether c is a supported contract type.
func (c ContractType) Valid() bool {
	return c == ContractNQ || c == ContractMNQ
}

// ParseContractType normalizes user or export input into a ContractType.
// Empty input defaults to NQ. Instrument names such as "MNQ 12-25" are accepted.
func ParseContractType(s string) (ContractType, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case v == "":
		return ContractNQ, nil
	case strings.Contains(v, "MNQ"):
		return ContractMNQ, nil
	case strings.Contains(v, "NQ"):
		return ContractNQ, nil
	}
	return "", &InvalidInputError{
		Field:   "contractType",
		Message: fmt.Sprintf("contractType must be NQ or MNQ, got %q", s),
	}
}
