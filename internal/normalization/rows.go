package normalization

import "risklo/internal/domain"

const (
	headerRows    = 2 // title row and weekday header row
	firstDayCol   = 2 // Monday
	lastDayCol    = 6 // Friday
	minRowLength  = 3
	sampleRowsMax = 5
	sampleColsMax = 7
)

// Normalize extracts per-contract daily values from raw sheet rows.
//
// The first two rows are headers. For every later row with at least three cells
// the Monday..Friday columns are parsed; invalid cells are dropped and zeros are
// kept in Values only. A sheet without a single non-zero value fails with
// *domain.NoTradingDataError.
func Normalize(rows []domain.SheetRow) (domain.Series, error) {
	var data []domain.SheetRow
	if len(rows) > headerRows {
		data = rows[headerRows:]
	}

	var series domain.Series
	for _, row := range data {
		if len(row) < minRowLength {
			continue
		}
		for col := firstDayCol; col <= lastDayCol && col < len(row); col++ {
			v, ok := ParseNumericValue(row[col])
			if !ok {
				continue
			}
			series.Values = append(series.Values, v)
			switch {
			case v < 0:
				series.Losses = append(series.Losses, -v)
			case v > 0:
				series.Profits = append(series.Profits, v)
			}
		}
	}

	if len(series.Losses) == 0 && len(series.Profits) == 0 {
		return domain.Series{}, noTradingData(data)
	}
	return series, nil
}

func noTradingData(data []domain.SheetRow) *domain.NoTradingDataError {
	n := min(len(data), sampleRowsMax)
	samples := make([]domain.SampleRow, 0, n)
	for i := 0; i < n; i++ {
		row := data[i]
		cols := row[:min(len(row), sampleColsMax)]
		samples = append(samples, domain.SampleRow{
			RowIndex: i + headerRows + 1,
			Length:   len(row),
			Columns:  append([]any{}, cols...),
		})
	}
	return &domain.NoTradingDataError{
		TotalRows:  len(data),
		SampleRows: samples,
	}
}
