package inventory

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inEvent(at time.Time, qty, price string) LedgerEvent {
	return LedgerEvent{SourceID: uuid.Must(uuid.NewV7()), Time: at, Flow: FlowIn, Quantity: dec(qty), UnitPrice: dec(price)}
}

func outEvent(at time.Time, qty string) LedgerEvent {
	return LedgerEvent{SourceID: uuid.Must(uuid.NewV7()), Time: at, Flow: FlowOut, Quantity: dec(qty)}
}

func window(t *testing.T, from, to time.Time) ValuationWindow {
	t.Helper()
	w, err := NewValuationWindow(from, to)
	require.NoError(t, err)
	return w
}

func TestLedgerReplayer_WindowBoundary(t *testing.T) {
	day := 24 * time.Hour
	events := []LedgerEvent{
		inEvent(baseTime, "10", "1"),
		outEvent(baseTime.Add(36*time.Hour), "4"),
	}
	w := window(t, baseTime.Add(day), baseTime.Add(2*day))

	report := NewLedgerReplayer().Replay(events, w)
	summary := report.Summary()

	assert.Equal(t, "10", summary.Opening.String())
	assert.Equal(t, "1", report.OpeningUnitValue().String())
	assert.Equal(t, "0", summary.In.String())
	assert.Equal(t, "4", summary.Out.String())
	assert.Equal(t, "6", summary.Closing.String())
	assert.Equal(t, "1", summary.ClosingValue.String())

	usage := report.Usage("kg")
	assert.Equal(t, "4", usage.Total.String())
	assert.Equal(t, "4.00", usage.Value.StringFixed(2))
	assert.Equal(t, "kg", usage.Measure)

	lines := report.Transactions()
	require.Len(t, lines, 2)
	assert.Equal(t, FlowOpen, lines[0].Flow)
	assert.Equal(t, w.From, lines[0].Time)
	assert.Equal(t, FlowOut, lines[1].Flow)
	assert.Equal(t, "-4", lines[1].SignedQuantity().String())
	assert.Equal(t, "1", lines[1].UnitValue.String())
}

func TestLedgerReplayer_Replay(t *testing.T) {
	replayer := NewLedgerReplayer()

	t.Run("out spanning cost layers reports average cost", func(t *testing.T) {
		events := []LedgerEvent{
			inEvent(baseTime, "10", "2"),
			inEvent(baseTime.Add(time.Hour), "5", "3"),
			outEvent(baseTime.Add(2*time.Hour), "12"),
		}
		report := replayer.Replay(events, window(t, baseTime, baseTime.Add(3*time.Hour)))

		assert.True(t, report.OpeningQty.IsZero())
		assert.Equal(t, "15", report.InQty.String())
		assert.Equal(t, "12", report.OutQty.String())
		assert.Equal(t, "3", report.ClosingQty.String())
		assert.Equal(t, "2.1667", report.Lines[2].UnitValue.Round(4).String())
		assert.Equal(t, "26", report.UsedVal.String())
		// 3 units left at 3 each
		assert.Equal(t, "3", report.ClosingUnitValue().String())
	})

	t.Run("events on both bounds are inside the window", func(t *testing.T) {
		from := baseTime.Add(time.Hour)
		to := baseTime.Add(2 * time.Hour)
		events := []LedgerEvent{
			inEvent(baseTime, "5", "1"),
			inEvent(from, "3", "2"),
			outEvent(to, "1"),
			inEvent(to.Add(time.Nanosecond), "100", "9"),
		}
		report := replayer.Replay(events, window(t, from, to))

		assert.Equal(t, "5", report.OpeningQty.String())
		assert.Equal(t, "3", report.InQty.String())
		assert.Equal(t, "1", report.OutQty.String())
		assert.Equal(t, "7", report.ClosingQty.String())
		assert.Len(t, report.Lines, 2)
	})

	t.Run("empty window closes where it opened", func(t *testing.T) {
		events := []LedgerEvent{
			inEvent(baseTime, "10", "2"),
			outEvent(baseTime.Add(time.Hour), "4"),
		}
		from := baseTime.Add(48 * time.Hour)
		report := replayer.Replay(events, window(t, from, from.Add(24*time.Hour)))

		summary := report.Summary()
		assert.Equal(t, "6", summary.Opening.String())
		assert.Equal(t, "6", summary.Closing.String())
		assert.Equal(t, "2", summary.ClosingValue.String())
		assert.Len(t, report.Transactions(), 1)
		assert.True(t, report.UsedQty.IsZero())
	})

	t.Run("window before any history is empty", func(t *testing.T) {
		events := []LedgerEvent{inEvent(baseTime, "10", "2")}
		from := baseTime.Add(-48 * time.Hour)
		report := replayer.Replay(events, window(t, from, from.Add(time.Hour)))

		assert.True(t, report.OpeningQty.IsZero())
		assert.True(t, report.ClosingQty.IsZero())
		assert.True(t, report.ClosingUnitValue().IsZero())
		assert.True(t, report.OpeningUnitValue().IsZero())
	})

	t.Run("over-consumption floors running state at zero", func(t *testing.T) {
		events := []LedgerEvent{
			inEvent(baseTime, "2", "1"),
			outEvent(baseTime.Add(time.Minute), "5"),
		}
		from := baseTime.Add(time.Hour)
		report := replayer.Replay(events, window(t, from, from.Add(time.Hour)))

		assert.True(t, report.OpeningQty.IsZero())
		assert.True(t, report.OpeningVal.IsZero())
	})

	t.Run("replay is idempotent", func(t *testing.T) {
		events := []LedgerEvent{
			inEvent(baseTime, "10", "1.25"),
			outEvent(baseTime.Add(time.Hour), "3"),
			inEvent(baseTime.Add(2*time.Hour), "4", "2"),
			outEvent(baseTime.Add(3*time.Hour), "9"),
		}
		w := window(t, baseTime.Add(90*time.Minute), baseTime.Add(4*time.Hour))

		first := replayer.Replay(events, w)
		second := replayer.Replay(events, w)
		assert.Equal(t, first, second)
	})
}

func TestNewValuationWindow(t *testing.T) {
	_, err := NewValuationWindow(baseTime.Add(time.Second), baseTime)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	w, err := NewValuationWindow(baseTime, baseTime)
	require.NoError(t, err)
	assert.True(t, w.Contains(baseTime))
	assert.False(t, w.Precedes(baseTime))
	assert.True(t, w.Precedes(baseTime.Add(-time.Nanosecond)))
}

func TestMergeHistory_OrdersInBeforeOutOnTies(t *testing.T) {
	batch := newTestBatch(t, "5", "1", baseTime)
	record := NewConsumptionRecord(testItemID, testUserID, batch.ID, uuid.Must(uuid.NewV7()), dec("2"), baseTime)
	older := newTestBatch(t, "1", "1", baseTime.Add(-time.Minute))

	events := MergeHistory([]StockBatch{*batch, *older}, []ConsumptionRecord{record})
	require.Len(t, events, 3)
	assert.Equal(t, older.ID, events[0].SourceID)
	assert.Equal(t, FlowIn, events[1].Flow)
	assert.Equal(t, FlowOut, events[2].Flow)
	assert.Equal(t, "5", events[1].Quantity.String())
}

// Drives random stock-ins and stock-outs through the allocator, then checks the
// replayed report against the persisted batch state.
func TestLedgerReplayer_Conservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	allocator := NewFIFOAllocator()
	replayer := NewLedgerReplayer()

	for round := 0; round < 25; round++ {
		var (
			batches []*StockBatch
			records []ConsumptionRecord
			now     = baseTime
		)

		for step := 0; step < 40; step++ {
			now = now.Add(time.Duration(1+rng.Intn(120)) * time.Minute)
			if rng.Intn(3) > 0 || len(batches) == 0 {
				qty := decimal.NewFromInt(int64(1 + rng.Intn(20)))
				price := decimal.NewFromInt(int64(rng.Intn(500))).Div(decimal.NewFromInt(100))
				b, err := NewStockBatchAt(testItemID, testUserID, qty, price, now)
				require.NoError(t, err)
				batches = append(batches, b)
				continue
			}
			want := decimal.NewFromInt(int64(1 + rng.Intn(15)))
			alloc, err := allocator.Allocate(batches, want)
			if err != nil {
				continue
			}
			records = append(records, alloc.ConsumptionRecords(testItemID, testUserID, now)...)
		}

		original, consumed, remaining := decimal.Zero, decimal.Zero, decimal.Zero
		history := make([]StockBatch, 0, len(batches))
		for _, b := range batches {
			original = original.Add(b.OriginalQuantity)
			remaining = remaining.Add(b.RemainingQuantity)
			history = append(history, *b)
		}
		for _, r := range records {
			consumed = consumed.Add(r.Quantity)
		}
		require.True(t, original.Sub(consumed).Equal(remaining), "round %d", round)

		events := MergeHistory(history, records)

		full := replayer.Replay(events, window(t, baseTime, now))
		assert.True(t, full.ClosingQty.Equal(remaining), "round %d", round)

		from := baseTime.Add(time.Duration(rng.Intn(40*60)) * time.Minute)
		to := from.Add(time.Duration(rng.Intn(20*60)) * time.Minute)
		report := replayer.Replay(events, window(t, from, to))
		assert.True(t, report.ClosingQty.Equal(report.OpeningQty.Add(report.InQty).Sub(report.OutQty)), "round %d", round)
		assert.False(t, report.ClosingQty.IsNegative(), "round %d", round)
	}
}
