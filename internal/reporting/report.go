package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"risklo/internal/domain"
)

// Headline is the overall tone of a summary.
type Headline string

const (
	HeadlineAllLow   Headline = "ALL_LOW"
	HeadlineHighRisk Headline = "HIGH_RISK"
	HeadlineMixed    Headline = "MIXED"
	HeadlineNone     Headline = "NONE"
)

// RecommendedAction is shown whenever any account needs action.
const RecommendedAction = "Reduce contracts first or switch to MNQ. If you are already on 1 MNQ contract, pick a lower-drawdown strategy."

// Summary is the account-level digest of a bulk run.
type Summary struct {
	GeneratedAt time.Time
	RiskMode    domain.RiskMode

	// Counts
	Total      int
	LowCount   int // LOW or GO
	HighCount  int // HIGH or CAUTION
	NoGoCount  int
	BlownCount int

	Headline Headline
	Actions  []ActionItem
	Blown    []BlownAccount
	Rows     []SummaryRow
}

// ActionItem is an account that requires attention.
type ActionItem struct {
	Name     string
	Strategy string
	Level    Level
	Score    string // "N/A" without metrics
}

// BlownAccount is an account with a negative trailing drawdown.
type BlownAccount struct {
	Name          string
	Strategy      string
	TrailingMaxDD float64
}

// SummaryRow is one table row.
type SummaryRow struct {
	Account     string
	Strategy    string
	Contracts   int
	Contract    domain.ContractType
	Balance     string // cash value, formatted
	MaxDrawdown string // trailing drawdown, formatted
	Score       string
	Level       Level
	Verdict     string
	Error       string
}

// TotalAtRisk returns blown, no-go and high risk accounts combined.
func (s *Summary) TotalAtRisk() int {
	return s.BlownCount + s.NoGoCount + s.HighCount
}

// Summarize classifies every result. Accounts classified MEDIUM or UNKNOWN
// are listed in the table but not counted.
func Summarize(results []domain.AccountResult, mode domain.RiskMode, now time.Time) *Summary {
	s := &Summary{GeneratedAt: now, RiskMode: mode, Total: len(results)}

	for i, r := range results {
		level := Classify(r)
		name := accountLabel(r, i)
		strategy := r.Position.Strategy
		if strategy == "" {
			strategy = "Unknown"
		}
		score := "N/A"
		if m, ok := r.Metrics.Get(); ok {
			score = fmt.Sprintf("%d", m.RiskScore)
		}

		switch level {
		case LevelBlown:
			s.BlownCount++
			s.Blown = append(s.Blown, BlownAccount{Name: name, Strategy: strategy, TrailingMaxDD: r.Position.TrailingMaxDrawdown})
		case LevelLow, LevelGo:
			s.LowCount++
		case LevelHigh, LevelCaution:
			s.HighCount++
		case LevelNoGo:
			s.NoGoCount++
		}
		if level.NeedsAction() {
			s.Actions = append(s.Actions, ActionItem{Name: name, Strategy: strategy, Level: level, Score: score})
		}

		contracts := r.Position.Contracts
		if contracts <= 0 {
			contracts = 1
		}
		contract := r.Position.ContractType
		if contract == "" {
			contract = domain.ContractNQ
		}
		s.Rows = append(s.Rows, SummaryRow{
			Account:     name,
			Strategy:    strategy,
			Contracts:   contracts,
			Contract:    contract,
			Balance:     formatMoney(balanceOf(r.Position)),
			MaxDrawdown: formatDrawdown(r.Position.TrailingMaxDrawdown),
			Score:       score,
			Level:       level,
			Verdict:     level.Verdict(),
			Error:       r.Error,
		})
	}

	switch {
	case s.TotalAtRisk() > 0:
		s.Headline = HeadlineHighRisk
	case s.LowCount > 0 && s.LowCount == s.Total:
		s.Headline = HeadlineAllLow
	case s.LowCount > 0:
		s.Headline = HeadlineMixed
	default:
		s.Headline = HeadlineNone
	}
	return s
}

func accountLabel(r domain.AccountResult, index int) string {
	if r.Position.AccountName != "" {
		return r.Position.AccountName
	}
	n := r.Position.AccountNumber
	if n == 0 {
		n = index + 1
	}
	return fmt.Sprintf("Account #%d", n)
}

// balanceOf prefers the cash value over net liquidation.
func balanceOf(p domain.PositionRow) float64 {
	if p.CashValue != 0 {
		return p.CashValue
	}
	return p.CurrentBalance
}

func formatDrawdown(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return formatMoney(v)
}

// formatMoney renders v as $1,234.56.
func formatMoney(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + "." + frac
}
