package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Withdrawal is the quantity taken from a single batch by an allocation
type Withdrawal struct {
	BatchID          uuid.UUID
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	Cost             decimal.Decimal // Quantity * UnitPrice
	RemainingInBatch decimal.Decimal
	Exhausted        bool
}

// Allocation is the outcome of a FIFO stock-out
type Allocation struct {
	Requested       decimal.Decimal
	TotalCost       decimal.Decimal
	BlendedUnitCost decimal.Decimal // TotalCost / Requested
	Withdrawals     []Withdrawal
}

// ConsumptionRecords builds one record per withdrawal, all sharing a stock-out id and timestamp
func (a *Allocation) ConsumptionRecords(itemID, userID uuid.UUID, at time.Time) []ConsumptionRecord {
	stockOutID := uuid.Must(uuid.NewV7())
	records := make([]ConsumptionRecord, 0, len(a.Withdrawals))
	for _, w := range a.Withdrawals {
		records = append(records, NewConsumptionRecord(itemID, userID, w.BatchID, stockOutID, w.Quantity, at))
	}
	return records
}

// FIFOAllocator draws stock from the oldest batches first
type FIFOAllocator struct{}

// NewFIFOAllocator creates a new FIFO allocator
func NewFIFOAllocator() *FIFOAllocator {
	return &FIFOAllocator{}
}

// Available sums the remaining quantity across batches
func (a *FIFOAllocator) Available(batches []*StockBatch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.HasStock() {
			total = total.Add(b.RemainingQuantity)
		}
	}
	return total
}

// Allocate withdraws the requested quantity from the given batches in FIFO order
// and decrements their remaining quantity in place.
// Batches are left untouched when the allocation fails.
func (a *FIFOAllocator) Allocate(batches []*StockBatch, requested decimal.Decimal) (*Allocation, error) {
	if !requested.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if !shared.FitsColumn(requested) {
		return nil, ErrQuantityPrecision
	}

	ordered := make([]*StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.HasStock() {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return FIFOLess(ordered[i], ordered[j])
	})

	available := a.Available(ordered)
	if available.IsZero() {
		return nil, ErrOutOfStock
	}
	if available.LessThan(requested) {
		return nil, NewInsufficientStockError(available, requested)
	}

	allocation := &Allocation{
		Requested:   requested,
		TotalCost:   decimal.Zero,
		Withdrawals: make([]Withdrawal, 0, len(ordered)),
	}

	remaining := requested
	for _, batch := range ordered {
		if !remaining.IsPositive() {
			break
		}
		taken := batch.Deduct(remaining)
		cost := taken.Mul(batch.UnitPrice)
		allocation.TotalCost = allocation.TotalCost.Add(cost)
		allocation.Withdrawals = append(allocation.Withdrawals, Withdrawal{
			BatchID:          batch.ID,
			Quantity:         taken,
			UnitPrice:        batch.UnitPrice,
			Cost:             cost,
			RemainingInBatch: batch.RemainingQuantity,
			Exhausted:        batch.IsExhausted(),
		})
		remaining = remaining.Sub(taken)
	}

	allocation.BlendedUnitCost = allocation.TotalCost.Div(requested)
	return allocation, nil
}
