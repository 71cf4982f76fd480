package reporting

import "risklo/internal/domain"

// Level is the summary classification of one account.
type Level string

const (
	LevelBlown   Level = "BLOWN"
	LevelNoGo    Level = "NO GO"
	LevelCaution Level = "CAUTION"
	LevelGo      Level = "GO"
	LevelHigh    Level = "HIGH"
	LevelMedium  Level = "MEDIUM"
	LevelLow     Level = "LOW"
	LevelUnknown Level = "UNKNOWN"
)

// Score thresholds for the fallback classification.
const (
	highScore   = 70
	mediumScore = 40
)

// Classify picks the first applicable rule: negative trailing drawdown, the
// blowout verdict, the Apex MAE verdict, then the composite score.
func Classify(r domain.AccountResult) Level {
	if r.Position.Blown() {
		return LevelBlown
	}
	m, ok := r.Metrics.Get()
	if !ok {
		return LevelUnknown
	}
	return classifyMetrics(m)
}

func classifyMetrics(m domain.RiskMetrics) Level {
	switch m.BlowAccountStatus {
	case domain.BlowoutNOGO:
		return LevelNoGo
	case domain.BlowoutCaution:
		return LevelCaution
	case domain.BlowoutGO:
		return LevelGo
	}

	if cmp, ok := m.ApexMaeComparison.Get(); ok {
		if cmp.ExceedsMae {
			return LevelNoGo
		}
		return LevelGo
	}

	switch {
	case m.RiskScore >= highScore:
		return LevelHigh
	case m.RiskScore >= mediumScore:
		return LevelMedium
	default:
		return LevelLow
	}
}

// CSSClass returns the display class for a level.
func (l Level) CSSClass() string {
	switch l {
	case LevelBlown, LevelNoGo, LevelHigh:
		return "risk-high"
	case LevelCaution, LevelMedium:
		return "risk-medium"
	case LevelGo, LevelLow:
		return "risk-low"
	}
	return "risk-unknown"
}

// Verdict collapses a level into BLOWN, NO GO or GO.
func (l Level) Verdict() string {
	switch l {
	case LevelBlown:
		return string(LevelBlown)
	case LevelNoGo, LevelHigh:
		return string(LevelNoGo)
	}
	return string(LevelGo)
}

// NeedsAction reports whether the account belongs in the action list.
func (l Level) NeedsAction() bool {
	switch l {
	case LevelBlown, LevelNoGo, LevelHigh, LevelCaution:
		return true
	}
	return false
}
