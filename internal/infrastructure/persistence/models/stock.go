package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
)

// StockBatchModel is the persistence model for stock-in batches
type StockBatchModel struct {
	OwnedModel
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_batches_item_created,priority:1"`
	OriginalQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	return &inventory.StockBatch{
		OwnedEntity:       m.OwnedModel.ToDomain(),
		ItemID:            m.ItemID,
		OriginalQuantity:  m.OriginalQuantity,
		RemainingQuantity: m.RemainingQuantity,
		UnitPrice:         m.UnitPrice,
	}
}

// StockBatchModelFromDomain creates a persistence model from a domain StockBatch
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{
		ItemID:            b.ItemID,
		OriginalQuantity:  b.OriginalQuantity,
		RemainingQuantity: b.RemainingQuantity,
		UnitPrice:         b.UnitPrice,
	}
	m.FromDomainOwnedEntity(b.OwnedEntity)
	return m
}

// StockOutTransactionModel is the persistence model for consumption records.
// One stock-out that spans several batches writes one row per batch sharing a StockOutID.
type StockOutTransactionModel struct {
	OwnedModel
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockOutID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (StockOutTransactionModel) TableName() string {
	return "stock_out_transactions"
}

// ToDomain converts the persistence model to a domain ConsumptionRecord
func (m *StockOutTransactionModel) ToDomain() inventory.ConsumptionRecord {
	return inventory.ConsumptionRecord{
		OwnedEntity: m.OwnedModel.ToDomain(),
		ItemID:      m.ItemID,
		BatchID:     m.BatchID,
		StockOutID:  m.StockOutID,
		Quantity:    m.Quantity,
	}
}

// StockOutTransactionModelFromDomain creates a persistence model from a domain ConsumptionRecord
func StockOutTransactionModelFromDomain(r *inventory.ConsumptionRecord) *StockOutTransactionModel {
	m := &StockOutTransactionModel{
		ItemID:     r.ItemID,
		BatchID:    r.BatchID,
		StockOutID: r.StockOutID,
		Quantity:   r.Quantity,
	}
	m.FromDomainOwnedEntity(r.OwnedEntity)
	return m
}
