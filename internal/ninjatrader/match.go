package ninjatrader

import (
	"strings"

	"risklo/internal/domain"
)

// DefaultTrailingDrawdown applies when the export reports no trailing drawdown.
const DefaultTrailingDrawdown = 1500

// Match pairs accounts with their strategies in account order. Each strategy
// yields one row; an account with none yields a single row with an empty
// strategy. Strategy names are replaced by the first sheet name that equals,
// contains or is contained in them, ignoring case.
func Match(accounts []Account, strategies []Strategy, sheetNames []string) []domain.PositionRow {
	byAccount := make(map[string][]Strategy)
	for _, s := range strategies {
		byAccount[s.AccountDisplayName] = append(byAccount[s.AccountDisplayName], s)
	}

	var rows []domain.PositionRow
	next := 1
	for _, acct := range accounts {
		trailing := acct.TrailingDrawdown
		if trailing == 0 {
			trailing = DefaultTrailingDrawdown
		}
		base := domain.PositionRow{
			AccountName:         acct.DisplayName,
			CurrentBalance:      acct.NetLiquidation,
			CashValue:           acct.CashValue,
			TrailingMaxDrawdown: trailing,
			AccountSize:         acct.AccountSize,
			StartOfDayProfit:    acct.StartOfDayProfit,
			SafetyNet:           acct.SafetyNet,
		}

		strats := byAccount[acct.DisplayName]
		if len(strats) == 0 {
			row := base
			row.AccountNumber = next
			row.ContractType = domain.ContractMNQ
			row.Contracts = 1
			rows = append(rows, row)
			next++
			continue
		}

		for _, s := range strats {
			row := base
			row.AccountNumber = next
			row.Strategy = matchSheet(s.Name, sheetNames)
			row.ContractType = s.Instrument
			row.Contracts = max(s.Contracts, 1)
			rows = append(rows, row)
			next++
		}
	}
	return rows
}

func matchSheet(strategy string, sheetNames []string) string {
	lower := strings.ToLower(strategy)
	for _, name := range sheetNames {
		n := strings.ToLower(name)
		if n == "" {
			continue
		}
		if n == lower || strings.Contains(n, lower) || strings.Contains(lower, n) {
			return name
		}
	}
	return strategy
}
