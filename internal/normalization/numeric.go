package normalization

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Characters removed from currency-formatted cells.
var stripper = strings.NewReplacer("$", "", ",", "", "(", "", ")", "")

// Longest leading decimal literal, exponent optional.
var numericPrefix = regexp.MustCompile(`^([+-]?)(\d*)(?:\.(\d*))?(?:[eE]([+-]?\d+))?`)

// ParseNumericValue converts a spreadsheet cell into a number.
//
// Strings are trimmed, a leading '-' is remembered, then currency symbols,
// thousands separators, parentheses and whitespace are removed and the longest
// numeric prefix is parsed. Parentheses alone do not make a value negative.
// ok is false for empty, non-numeric and non-finite cells.
func ParseNumericValue(cell any) (v float64, ok bool) {
	switch c := cell.(type) {
	case nil:
		return 0, false
	case float64:
		return c, isFinite(c)
	case float32:
		return float64(c), isFinite(float64(c))
	case int:
		return float64(c), true
	case int64:
		return float64(c), true
	case json.Number:
		return parseString(c.String())
	case string:
		return parseString(c)
	case bool:
		return 0, false
	default:
		return parseString(fmt.Sprint(c))
	}
}

func parseString(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	negative := strings.HasPrefix(s, "-")

	cleaned := strings.Join(strings.Fields(stripper.Replace(s)), "")
	d, ok := leadingDecimal(cleaned)
	if !ok {
		return 0, false
	}
	if negative {
		d = d.Abs().Neg()
	}

	f := d.InexactFloat64()
	if !isFinite(f) {
		return 0, false
	}
	return f, true
}

// leadingDecimal parses the numeric prefix of s the way parseFloat would.
func leadingDecimal(s string) (decimal.Decimal, bool) {
	m := numericPrefix.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "") {
		return decimal.Zero, false
	}

	var b strings.Builder
	b.WriteString(m[1])
	if m[2] == "" {
		b.WriteString("0")
	} else {
		b.WriteString(m[2])
	}
	if m[3] != "" {
		b.WriteString(".")
		b.WriteString(m[3])
	}
	if m[4] != "" {
		b.WriteString("e")
		b.WriteString(m[4])
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
