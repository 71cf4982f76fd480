// Package ninjatrader imports NinjaTrader account and strategy exports and pairs
// them into position rows for bulk analysis.
package ninjatrader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"risklo/internal/domain"
	"risklo/internal/normalization"
)

// ErrInvalidCSV is returned for exports that are empty or miss required columns.
var ErrInvalidCSV = errors.New("invalid ninjatrader csv")

// Account is one row of the Accounts export.
type Account struct {
	DisplayName      string  `json:"displayName"`
	NetLiquidation   float64 `json:"netLiquidation"`
	CashValue        float64 `json:"cashValue"`
	TrailingDrawdown float64 `json:"trailingDrawdown"`
	AccountSize      float64 `json:"accountSize"` // closest preset
	SafetyNet        float64 `json:"safetyNet"`
	StartOfDayProfit float64 `json:"startOfDayProfit"` // net liquidation above the preset size
}

// Strategy is one row of the Strategies export.
type Strategy struct {
	Name               string              `json:"strategy"`
	Instrument         domain.ContractType `json:"instrument"`
	AccountDisplayName string              `json:"accountDisplayName"`
	Contracts          int                 `json:"contracts"`
}

// Evaluation account sizes and their safety nets.
var presets = []struct {
	size      float64
	safetyNet float64
}{
	{25000, 750},
	{50000, 1500},
	{100000, 3000},
	{150000, 4500},
	{250000, 7500},
}

var (
	nonMoney       = regexp.MustCompile(`[^0-9.\-]`)
	leadingInteger = regexp.MustCompile(`^(\d+)`)
)

// ParseAccounts reads an Accounts export. "Display name" and "Net liquidation"
// columns are required. Rows without a name or with non-positive net
// liquidation are skipped.
func ParseAccounts(r io.Reader) ([]Account, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	nameIdx := column(header, "display name")
	netIdx := column(header, "net liquidation")
	cashIdx := column(header, "cash value")
	trailIdx := column(header, "trailing max")
	if nameIdx < 0 || netIdx < 0 {
		return nil, fmt.Errorf("%w: missing required columns (Display name, Net liquidation)", ErrInvalidCSV)
	}

	var accounts []Account
	for _, rec := range records {
		if len(rec) < max(nameIdx, netIdx)+1 {
			continue
		}
		name := strings.TrimSpace(rec[nameIdx])
		net, ok := money(rec[netIdx])
		if name == "" || !ok || net <= 0 {
			continue
		}

		cash := net
		if cashIdx >= 0 {
			cash, _ = money(cell(rec, cashIdx))
		}
		var trailing float64
		if trailIdx >= 0 {
			trailing, _ = money(cell(rec, trailIdx))
		}

		size, safetyNet := closestPreset(net)
		accounts = append(accounts, Account{
			DisplayName:      name,
			NetLiquidation:   net,
			CashValue:        cash,
			TrailingDrawdown: trailing,
			AccountSize:      size,
			SafetyNet:        safetyNet,
			StartOfDayProfit: decimal.NewFromFloat(net).Sub(decimal.NewFromFloat(size)).RoundFloor(2).InexactFloat64(),
		})
	}
	return accounts, nil
}

// ParseStrategies reads a Strategies export. "Strategy", "Instrument" and an
// account column are required. The contract count is the leading integer of
// the Parameters column, 1 when absent.
func ParseStrategies(r io.Reader) ([]Strategy, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	stratIdx := column(header, "strategy")
	instIdx := column(header, "instrument")
	paramIdx := column(header, "parameters")
	acctIdx := column(header, "account")
	if stratIdx < 0 || instIdx < 0 || acctIdx < 0 {
		return nil, fmt.Errorf("%w: missing required columns (Strategy, Instrument, Account display name)", ErrInvalidCSV)
	}

	var strategies []Strategy
	for _, rec := range records {
		if len(rec) < max(stratIdx, instIdx, acctIdx)+1 {
			continue
		}
		name := strings.TrimSpace(rec[stratIdx])
		instrument := strings.ToUpper(strings.TrimSpace(rec[instIdx]))
		account := strings.TrimSpace(rec[acctIdx])
		if name == "" || instrument == "" || account == "" {
			continue
		}

		strategies = append(strategies, Strategy{
			Name:               name,
			Instrument:         instrumentType(instrument),
			AccountDisplayName: account,
			Contracts:          contractsFrom(strings.TrimSpace(cell(rec, paramIdx))),
		})
	}
	return strategies, nil
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	var nonBlank [][]string
	for _, rec := range all {
		if strings.TrimSpace(strings.Join(rec, "")) != "" {
			nonBlank = append(nonBlank, rec)
		}
	}
	if len(nonBlank) < 2 {
		return nil, nil, fmt.Errorf("%w: file appears to be empty", ErrInvalidCSV)
	}

	header := make([]string, len(nonBlank[0]))
	for i, h := range nonBlank[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return header, nonBlank[1:], nil
}

// column returns the first header containing substr, or -1.
func column(header []string, substr string) int {
	for i, h := range header {
		if strings.Contains(h, substr) {
			return i
		}
	}
	return -1
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// money keeps digits, dots and minus signs and floors the result to cents.
func money(s string) (float64, bool) {
	v, ok := normalization.ParseNumericValue(nonMoney.ReplaceAllString(s, ""))
	if !ok {
		return 0, false
	}
	return floorCents(v), true
}

func floorCents(v float64) float64 {
	return decimal.NewFromFloat(v).RoundFloor(2).InexactFloat64()
}

func closestPreset(net float64) (size, safetyNet float64) {
	best := presets[0]
	for _, p := range presets[1:] {
		if math.Abs(net-p.size) < math.Abs(net-best.size) {
			best = p
		}
	}
	return best.size, best.safetyNet
}

// instrumentType maps "MNQ 03-25" style instruments onto a contract type.
// Unsupported instruments are kept verbatim so analysis reports them.
func instrumentType(instrument string) domain.ContractType {
	if ct, err := domain.ParseContractType(instrument); err == nil {
		return ct
	}
	return domain.ContractType(instrument)
}

func contractsFrom(parameters string) int {
	m := leadingInteger.FindStringSubmatch(parameters)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 1
	}
	return n
}
