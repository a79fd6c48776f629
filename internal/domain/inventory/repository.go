package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockBatchRepository defines the interface for stock batch persistence
type StockBatchRepository interface {
	// FindAvailableForUpdate finds batches with remaining stock, oldest first,
	// locking the rows for the rest of the transaction
	FindAvailableForUpdate(ctx context.Context, userID, itemID uuid.UUID) ([]*StockBatch, error)

	// FindByItem finds a page of batches for an item, newest first
	FindByItem(ctx context.Context, userID, itemID uuid.UUID, filter shared.Filter) ([]StockBatch, error)

	// FindHistory finds every batch ever created for an item, oldest first
	FindHistory(ctx context.Context, userID, itemID uuid.UUID) ([]StockBatch, error)

	// CountByItem counts batches ever created for an item
	CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error)

	// SumRemaining sums remaining quantity across an item's batches
	SumRemaining(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)

	// Create inserts a new batch
	Create(ctx context.Context, batch *StockBatch) error

	// UpdateRemaining persists the remaining quantity of the given batches
	UpdateRemaining(ctx context.Context, batches []*StockBatch) error

	// DeleteByItem deletes all batches of an item
	DeleteByItem(ctx context.Context, itemID uuid.UUID) error
}

// ConsumptionRecordRepository defines the interface for consumption record persistence
type ConsumptionRecordRepository interface {
	// CreateBatch inserts the records written by one stock-out
	CreateBatch(ctx context.Context, records []ConsumptionRecord) error

	// FindHistory finds every consumption record of an item, oldest first
	FindHistory(ctx context.Context, userID, itemID uuid.UUID) ([]ConsumptionRecord, error)

	// DeleteByItem deletes all consumption records of an item
	DeleteByItem(ctx context.Context, itemID uuid.UUID) error
}
