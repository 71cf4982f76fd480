package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"account", "strategy", "contracts", "contract_type", "balance",
	"trailing_drawdown", "risk_score", "level", "verdict", "error",
}

// RenderCSV renders summary rows as CSV string.
func RenderCSV(s *Summary) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, r := range s.Rows {
		rec := []string{
			r.Account,
			r.Strategy,
			strconv.Itoa(r.Contracts),
			string(r.Contract),
			r.Balance,
			r.MaxDrawdown,
			r.Score,
			string(r.Level),
			r.Verdict,
			r.Error,
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
