package domain

// SheetRow is one spreadsheet row of raw cell values (string, float64, int or nil).
type SheetRow []any

// Series is the normalized per-contract daily P&L of one strategy sheet.
type Series struct {
	Values  []float64 // every valid observation in sheet order, zeros included
	Losses  []float64 // magnitudes of negative observations
	Profits []float64 // positive observations
}

// TotalObservations is the breach-probability denominator.
func (s Series) TotalObservations() int {
	return len(s.Values)
}

// ScaledSeries is a Series sized to a position.
type ScaledSeries struct {
	Losses            []float64 // position-sized loss magnitudes
	Profits           []float64 // position-sized profits
	TotalObservations int

	WorstLoss float64
	AvgLoss   float64
	MaxProfit float64
	AvgProfit float64
}
