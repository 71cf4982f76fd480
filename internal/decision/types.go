package decision

import "risklo/internal/domain"

// CriterionResult represents pass/fail for one check.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Checklist is the per-check breakdown of one analysis.
type Checklist struct {
	SheetName string
	Status    domain.BlowoutStatus
	Level     domain.RiskLevel
	Score     int
	Checks    []CriterionResult
}

// Failed returns the checks that did not pass.
func (c *Checklist) Failed() []CriterionResult {
	var out []CriterionResult
	for _, r := range c.Checks {
		if !r.Pass {
			out = append(out, r)
		}
	}
	return out
}
