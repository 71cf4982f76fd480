package metrics

import "risklo/internal/domain"

// Scaler sizes per-contract values to a position.
type Scaler struct {
	multiplier float64
	contracts  int
}

// NewScaler returns a Scaler for contracts of the given type.
func NewScaler(ct domain.ContractType, contracts int) Scaler {
	return Scaler{multiplier: ct.Multiplier(), contracts: contracts}
}

// Scale returns v * multiplier * contracts.
func (s Scaler) Scale(v float64) float64 {
	return v * s.multiplier * float64(s.contracts)
}

// PerContract returns v adjusted for contract type only.
func (s Scaler) PerContract(v float64) float64 {
	return v * s.multiplier
}

// ScaleAll scales every value into a new slice.
func (s Scaler) ScaleAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = s.Scale(v)
	}
	return out
}

// Apply sizes a normalized series. Aggregates are taken per contract and
// then scaled.
func (s Scaler) Apply(series domain.Series) domain.ScaledSeries {
	return domain.ScaledSeries{
		Losses:            s.ScaleAll(series.Losses),
		Profits:           s.ScaleAll(series.Profits),
		TotalObservations: series.TotalObservations(),
		WorstLoss:         s.Scale(maxOf(series.Losses)),
		AvgLoss:           s.Scale(mean(series.Losses)),
		MaxProfit:         s.Scale(maxOf(series.Profits)),
		AvgProfit:         s.Scale(mean(series.Profits)),
	}
}
