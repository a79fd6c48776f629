package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// ConsumptionRecord is one atomic withdrawal from one batch.
// A stock-out that spans several batches writes one record per batch,
// all sharing the same StockOutID and timestamp.
type ConsumptionRecord struct {
	shared.OwnedEntity
	ItemID     uuid.UUID
	BatchID    uuid.UUID
	StockOutID uuid.UUID
	Quantity   decimal.Decimal
}

// NewConsumptionRecord creates a consumption record for a withdrawal
func NewConsumptionRecord(itemID, userID, batchID, stockOutID uuid.UUID, quantity decimal.Decimal, at time.Time) ConsumptionRecord {
	return ConsumptionRecord{
		OwnedEntity: shared.OwnedEntity{
			BaseEntity: shared.NewBaseEntityAt(at),
			UserID:     userID,
		},
		ItemID:     itemID,
		BatchID:    batchID,
		StockOutID: stockOutID,
		Quantity:   quantity,
	}
}
