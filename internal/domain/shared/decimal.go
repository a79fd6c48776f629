package shared

import "github.com/shopspring/decimal"

// Quantities and prices are stored as DECIMAL(18,4)
const (
	DecimalScale     = 4
	DecimalPrecision = 18
)

var maxStoredDecimal = decimal.New(1, DecimalPrecision-DecimalScale)

// FitsColumn reports whether d can be stored without rounding or overflow
func FitsColumn(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(DecimalScale)) && d.Abs().LessThan(maxStoredDecimal)
}
