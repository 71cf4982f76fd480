// Package sheets retrieves strategy sheets: the daily P&L grids the risk engine reads.
package sheets

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"risklo/internal/domain"
)

var (
	// ErrSheetNotFound is returned when the named sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrUpstreamUnavailable is returned when the sheet source is down or the
	// circuit breaker is open.
	ErrUpstreamUnavailable = errors.New("sheet source unavailable")
)

// Provider lists strategy sheets and returns their raw rows.
type Provider interface {
	// SheetNames returns strategy sheet names, already filtered.
	SheetNames(ctx context.Context) ([]string, error)

	// Rows returns every row of the named sheet. Returns ErrSheetNotFound if missing.
	Rows(ctx context.Context, name string) ([]domain.SheetRow, error)
}

// Monthly archive tabs such as "01.2025".
var datePattern = regexp.MustCompile(`^\d{2}\.\d{4}$`)

var excludedNames = []string{"current results", "current results (hidden)"}

// FilterSheetNames drops empty names, monthly archive tabs and the results
// overview tabs, keeping order.
func FilterSheetNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || datePattern.MatchString(trimmed) || excluded(trimmed) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, ex := range excludedNames {
		if lower == ex {
			return true
		}
	}
	return false
}
