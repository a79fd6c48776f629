package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportLine is one row of the valuation report
type ReportLine struct {
	Time      time.Time
	Flow      Flow
	Quantity  decimal.Decimal // Always positive; the sign follows Flow
	UnitValue decimal.Decimal // Unit price for In, average FIFO cost for Out, average value for Open
}

// SignedQuantity returns the quantity with the sign of its flow
func (l ReportLine) SignedQuantity() decimal.Decimal {
	if l.Flow == FlowOut {
		return l.Quantity.Neg()
	}
	return l.Quantity
}

// ValuationSummary is the display summary of a report window.
// Quantities are rounded to whole units and ClosingValue to 2 decimals.
type ValuationSummary struct {
	Opening      decimal.Decimal
	In           decimal.Decimal
	Out          decimal.Decimal
	Closing      decimal.Decimal
	ClosingValue decimal.Decimal // Average unit value of the closing stock
}

// UsageSummary aggregates stock consumed inside the window
type UsageSummary struct {
	Total   decimal.Decimal
	Value   decimal.Decimal
	Measure string
}

// ValuationReport holds the unrounded result of a ledger replay
type ValuationReport struct {
	Window ValuationWindow

	OpeningQty decimal.Decimal
	OpeningVal decimal.Decimal
	InQty      decimal.Decimal
	OutQty     decimal.Decimal
	ClosingQty decimal.Decimal

	// Running state from the window start, seeded from the opening snapshot
	PeriodQty decimal.Decimal
	PeriodVal decimal.Decimal

	UsedQty decimal.Decimal
	UsedVal decimal.Decimal

	// In-window activity, oldest first
	Lines []ReportLine
}

// OpeningUnitValue returns the average value per unit at the window start
func (r *ValuationReport) OpeningUnitValue() decimal.Decimal {
	return averageOf(r.OpeningVal, r.OpeningQty)
}

// ClosingUnitValue returns the average value per unit at the window end
func (r *ValuationReport) ClosingUnitValue() decimal.Decimal {
	return averageOf(r.PeriodVal, r.PeriodQty)
}

// Summary returns the rounded display summary
func (r *ValuationReport) Summary() ValuationSummary {
	return ValuationSummary{
		Opening:      r.OpeningQty.Round(0),
		In:           r.InQty.Round(0),
		Out:          r.OutQty.Round(0),
		Closing:      r.ClosingQty.Round(0),
		ClosingValue: r.ClosingUnitValue().Round(2),
	}
}

// Usage returns the rounded consumption totals in the item's unit of measure
func (r *ValuationReport) Usage(measure string) UsageSummary {
	return UsageSummary{
		Total:   r.UsedQty.Round(0),
		Value:   r.UsedVal.Round(2),
		Measure: measure,
	}
}

// Transactions returns the report lines prefixed with the synthetic Open line
func (r *ValuationReport) Transactions() []ReportLine {
	lines := make([]ReportLine, 0, len(r.Lines)+1)
	lines = append(lines, ReportLine{
		Time:      r.Window.From,
		Flow:      FlowOpen,
		Quantity:  r.OpeningQty,
		UnitValue: r.OpeningUnitValue(),
	})
	return append(lines, r.Lines...)
}

func averageOf(value, quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return value.Div(quantity)
}
