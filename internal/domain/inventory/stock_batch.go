package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockBatch represents one stock-in event: a quantity bought at a fixed unit price.
// RemainingQuantity only ever decreases, and only through FIFO allocation.
type StockBatch struct {
	shared.OwnedEntity
	ItemID            uuid.UUID
	OriginalQuantity  decimal.Decimal // Quantity received, including any seeded baseline
	RemainingQuantity decimal.Decimal // Quantity not yet consumed
	UnitPrice         decimal.Decimal // Cost per unit, fixed at creation
}

// NewStockBatch creates a new stock batch
func NewStockBatch(itemID, userID uuid.UUID, quantity, unitPrice decimal.Decimal) (*StockBatch, error) {
	return NewStockBatchAt(itemID, userID, quantity, unitPrice, time.Now())
}

// NewStockBatchAt creates a new stock batch stamped with the given creation time
func NewStockBatchAt(itemID, userID uuid.UUID, quantity, unitPrice decimal.Decimal, at time.Time) (*StockBatch, error) {
	if err := validateStockIn(quantity, unitPrice); err != nil {
		return nil, err
	}
	return &StockBatch{
		OwnedEntity: shared.OwnedEntity{
			BaseEntity: shared.NewBaseEntityAt(at),
			UserID:     userID,
		},
		ItemID:            itemID,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		UnitPrice:         unitPrice,
	}, nil
}

func validateStockIn(quantity, unitPrice decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !shared.FitsColumn(quantity) {
		return ErrQuantityPrecision
	}
	if unitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	if !shared.FitsColumn(unitPrice) {
		return ErrUnitPricePrecision
	}
	return nil
}

// Deduct reduces the remaining quantity.
// Returns the quantity actually deducted, which is less than requested when the batch runs out.
func (b *StockBatch) Deduct(quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	taken := decimal.Min(quantity, b.RemainingQuantity)
	b.RemainingQuantity = b.RemainingQuantity.Sub(taken)
	b.UpdatedAt = time.Now()
	return taken
}

// HasStock returns true if the batch can still be allocated from
func (b *StockBatch) HasStock() bool {
	return b.RemainingQuantity.IsPositive()
}

// IsExhausted returns true once every unit has been consumed
func (b *StockBatch) IsExhausted() bool {
	return !b.HasStock()
}

// ConsumedQuantity returns how much of the batch has been drawn
func (b *StockBatch) ConsumedQuantity() decimal.Decimal {
	return b.OriginalQuantity.Sub(b.RemainingQuantity)
}

// RemainingValue returns the cost value of the unconsumed quantity
func (b *StockBatch) RemainingValue() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.UnitPrice)
}

// FIFOLess orders batches oldest first, breaking timestamp ties by id
func FIFOLess(a, b *StockBatch) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return compareIDs(a.ID, b.ID) < 0
}

func compareIDs(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
