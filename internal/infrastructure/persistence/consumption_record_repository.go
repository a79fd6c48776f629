package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConsumptionRecordRepository implements ConsumptionRecordRepository using GORM.
// Records are stored in the stock_out_transactions table.
type GormConsumptionRecordRepository struct {
	db *gorm.DB
}

// NewGormConsumptionRecordRepository creates a new GormConsumptionRecordRepository
func NewGormConsumptionRecordRepository(db *gorm.DB) *GormConsumptionRecordRepository {
	return &GormConsumptionRecordRepository{db: db}
}

// CreateBatch inserts the records written by one stock-out
func (r *GormConsumptionRecordRepository) CreateBatch(ctx context.Context, records []inventory.ConsumptionRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]*models.StockOutTransactionModel, len(records))
	for i := range records {
		rows[i] = models.StockOutTransactionModelFromDomain(&records[i])
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("create consumption records: %w", err)
	}
	return nil
}

// FindHistory finds every consumption record of an item, oldest first
func (r *GormConsumptionRecordRepository) FindHistory(ctx context.Context, userID, itemID uuid.UUID) ([]inventory.ConsumptionRecord, error) {
	var rows []models.StockOutTransactionModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND user_id = ?", itemID, userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load consumption history: %w", err)
	}
	records := make([]inventory.ConsumptionRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// DeleteByItem deletes all consumption records of an item
func (r *GormConsumptionRecordRepository) DeleteByItem(ctx context.Context, itemID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.StockOutTransactionModel{}).Error; err != nil {
		return fmt.Errorf("delete consumption records: %w", err)
	}
	return nil
}

// Ensure GormConsumptionRecordRepository implements ConsumptionRecordRepository
var _ inventory.ConsumptionRecordRepository = (*GormConsumptionRecordRepository)(nil)
