package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Flow is the direction of a ledger line
type Flow string

const (
	FlowOpen Flow = "Open"
	FlowIn   Flow = "In"
	FlowOut  Flow = "Out"
)

// String returns the string representation
func (f Flow) String() string {
	return string(f)
}

// LedgerEvent is one entry of an item's stock history
type LedgerEvent struct {
	SourceID  uuid.UUID // Batch or consumption record id
	Time      time.Time
	Flow      Flow
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal // Only set on In events
}

// BatchEvent converts a batch creation into an In event
func BatchEvent(b StockBatch) LedgerEvent {
	return LedgerEvent{
		SourceID:  b.ID,
		Time:      b.CreatedAt,
		Flow:      FlowIn,
		Quantity:  b.OriginalQuantity,
		UnitPrice: b.UnitPrice,
	}
}

// ConsumptionEvent converts a consumption record into an Out event
func ConsumptionEvent(r ConsumptionRecord) LedgerEvent {
	return LedgerEvent{
		SourceID: r.ID,
		Time:     r.CreatedAt,
		Flow:     FlowOut,
		Quantity: r.Quantity,
	}
}

// MergeHistory merges batches and consumption records into one chronological history.
// Events at the same instant place In before Out, then follow id order.
func MergeHistory(batches []StockBatch, records []ConsumptionRecord) []LedgerEvent {
	events := make([]LedgerEvent, 0, len(batches)+len(records))
	for _, b := range batches {
		events = append(events, BatchEvent(b))
	}
	for _, r := range records {
		events = append(events, ConsumptionEvent(r))
	}
	SortEvents(events)
	return events
}

// SortEvents orders events chronologically
func SortEvents(events []LedgerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		if a.Flow != b.Flow {
			return a.Flow == FlowIn
		}
		return compareIDs(a.SourceID, b.SourceID) < 0
	})
}

// ValuationWindow is the closed reporting interval [From, To]
type ValuationWindow struct {
	From time.Time
	To   time.Time
}

// NewValuationWindow creates a reporting window, both bounds inclusive
func NewValuationWindow(from, to time.Time) (ValuationWindow, error) {
	if from.After(to) {
		return ValuationWindow{}, ErrInvalidWindow
	}
	return ValuationWindow{From: from, To: to}, nil
}

// Contains reports whether t falls inside the window, bounds included
func (w ValuationWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Precedes reports whether t falls strictly before the window
func (w ValuationWindow) Precedes(t time.Time) bool {
	return t.Before(w.From)
}

// costLayer is the unconsumed part of one In event during a replay
type costLayer struct {
	quantity decimal.Decimal
	price    decimal.Decimal
}

// LedgerReplayer rebuilds point-in-time inventory state by replaying history
type LedgerReplayer struct{}

// NewLedgerReplayer creates a new ledger replayer
func NewLedgerReplayer() *LedgerReplayer {
	return &LedgerReplayer{}
}

// Replay walks the full history once, simulating FIFO consumption on a local
// queue of cost layers, and reports the window's opening, activity and closing.
// The events must already be in chronological order (see SortEvents).
func (r *LedgerReplayer) Replay(events []LedgerEvent, window ValuationWindow) *ValuationReport {
	var (
		layers       []costLayer
		running      = decimal.Zero
		runningValue = decimal.Zero

		opening      = decimal.Zero
		openingValue = decimal.Zero
		started      bool

		periodQty   = decimal.Zero
		periodValue = decimal.Zero

		report = &ValuationReport{
			Window:  window,
			InQty:   decimal.Zero,
			OutQty:  decimal.Zero,
			UsedQty: decimal.Zero,
			UsedVal: decimal.Zero,
		}
	)

	startPeriod := func(q, v decimal.Decimal) {
		opening, openingValue = q, v
		periodQty, periodValue = q, v
		started = true
	}

	for _, ev := range events {
		inWindow := window.Contains(ev.Time)

		switch ev.Flow {
		case FlowIn:
			value := ev.Quantity.Mul(ev.UnitPrice)
			layers = append(layers, costLayer{quantity: ev.Quantity, price: ev.UnitPrice})
			running = running.Add(ev.Quantity)
			runningValue = runningValue.Add(value)

			if inWindow {
				if !started {
					startPeriod(running.Sub(ev.Quantity), runningValue.Sub(value))
				}
				periodQty = periodQty.Add(ev.Quantity)
				periodValue = periodValue.Add(value)
				report.InQty = report.InQty.Add(ev.Quantity)
				report.Lines = append(report.Lines, ReportLine{
					Time:      ev.Time,
					Flow:      FlowIn,
					Quantity:  ev.Quantity,
					UnitValue: ev.UnitPrice,
				})
			}

		case FlowOut:
			outValue := decimal.Zero
			toTake := ev.Quantity
			for toTake.IsPositive() && len(layers) > 0 {
				head := &layers[0]
				taken := decimal.Min(toTake, head.quantity)
				outValue = outValue.Add(taken.Mul(head.price))
				head.quantity = head.quantity.Sub(taken)
				if !head.quantity.IsPositive() {
					layers = layers[1:]
				}
				toTake = toTake.Sub(taken)
			}

			avgCost := decimal.Zero
			if ev.Quantity.IsPositive() {
				avgCost = outValue.Div(ev.Quantity)
			}

			running = floorZero(running.Sub(ev.Quantity))
			runningValue = floorZero(runningValue.Sub(outValue))

			if inWindow {
				if !started {
					startPeriod(running.Add(ev.Quantity), runningValue.Add(outValue))
				}
				periodQty = periodQty.Sub(ev.Quantity)
				periodValue = periodValue.Sub(outValue)
				report.OutQty = report.OutQty.Add(ev.Quantity)
				report.UsedQty = report.UsedQty.Add(ev.Quantity)
				report.UsedVal = report.UsedVal.Add(outValue)
				report.Lines = append(report.Lines, ReportLine{
					Time:      ev.Time,
					Flow:      FlowOut,
					Quantity:  ev.Quantity,
					UnitValue: avgCost,
				})
			}
		}

		if window.Precedes(ev.Time) {
			opening = running
			openingValue = runningValue
		}
	}

	// A window without activity closes where it opened.
	if !started {
		periodQty, periodValue = opening, openingValue
	}

	report.OpeningQty = opening
	report.OpeningVal = openingValue
	report.PeriodQty = periodQty
	report.PeriodVal = periodValue
	report.ClosingQty = opening.Add(report.InQty).Sub(report.OutQty)
	return report
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
