package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// Stock-out rejection reasons
const (
	RejectInsufficientStock = "insufficient_stock"
	RejectOutOfStock        = "out_of_stock"
)

// StockMetrics counts stock movements. A nil *StockMetrics records nothing.
type StockMetrics struct {
	batchesCreated *Counter
	stockOuts      *Counter
	rejections     *Counter
	allocatedCost  *Histogram
}

// NewStockMetrics creates the stock instruments on meter
func NewStockMetrics(meter metric.Meter) (*StockMetrics, error) {
	batchesCreated, err := NewCounter(meter,
		"stock_batches_created_total",
		"Stock-in batches recorded",
		"{batch}",
	)
	if err != nil {
		return nil, err
	}

	stockOuts, err := NewCounter(meter,
		"stock_outs_allocated_total",
		"Stock-outs allocated across FIFO batches",
		"{stock_out}",
	)
	if err != nil {
		return nil, err
	}

	rejections, err := NewCounter(meter,
		"stock_out_rejections_total",
		"Stock-outs refused for lack of stock",
		"{stock_out}",
	)
	if err != nil {
		return nil, err
	}

	allocatedCost, err := NewHistogram(meter, HistogramOpts{
		Name:        "stock_out_allocated_cost",
		Description: "Total FIFO cost of each allocated stock-out",
		Unit:        "{currency}",
		Boundaries:  CostBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &StockMetrics{
		batchesCreated: batchesCreated,
		stockOuts:      stockOuts,
		rejections:     rejections,
		allocatedCost:  allocatedCost,
	}, nil
}

// BatchCreated records a stock-in
func (m *StockMetrics) BatchCreated(ctx context.Context, firstTransaction bool) {
	if m == nil {
		return
	}
	m.batchesCreated.Inc(ctx, AttrFirstTransaction.Bool(firstTransaction))
}

// StockOutAllocated records a committed stock-out and its cost
func (m *StockMetrics) StockOutAllocated(ctx context.Context, totalCost decimal.Decimal) {
	if m == nil {
		return
	}
	m.stockOuts.Inc(ctx)
	m.allocatedCost.Record(ctx, totalCost.InexactFloat64())
}

// StockOutRejected records a stock-out refused with reason
func (m *StockMetrics) StockOutRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejections.Inc(ctx, AttrRejectReason.String(reason))
}
