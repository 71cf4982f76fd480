package domain

import "fmt"

// InvalidInputError is returned when a request field fails validation.
// It is a client error and carries the offending field name.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SampleRow is a raw sheet row echoed back for troubleshooting.
type SampleRow struct {
	RowIndex int   `json:"rowIndex"` // 1-based sheet row number
	Length   int   `json:"length"`
	Columns  []any `json:"columns"` // first 7 cells
}

// NoTradingDataError is returned when a sheet yields no usable daily values.
// Callers recover by showing the diagnostics to the user.
type NoTradingDataError struct {
	TotalRows  int         `json:"totalRows"`
	SampleRows []SampleRow `json:"sampleRows"`
}

func (e *NoTradingDataError) Error() string {
	return fmt.Sprintf("no trading data found in the sheet (%d data rows)", e.TotalRows)
}
