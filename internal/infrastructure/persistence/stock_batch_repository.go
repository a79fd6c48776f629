package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockBatchRepository implements StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindAvailableForUpdate finds batches with remaining stock in FIFO order
// (created_at, then id) and locks them with SELECT ... FOR UPDATE
func (r *GormStockBatchRepository) FindAvailableForUpdate(ctx context.Context, userID, itemID uuid.UUID) ([]*inventory.StockBatch, error) {
	var rows []models.StockBatchModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND user_id = ? AND remaining_quantity > 0", itemID, userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find available batches: %w", err)
	}
	batches := make([]*inventory.StockBatch, len(rows))
	for i := range rows {
		batches[i] = rows[i].ToDomain()
	}
	return batches, nil
}

// FindByItem finds a page of batches for an item, newest first unless the filter says otherwise
func (r *GormStockBatchRepository) FindByItem(ctx context.Context, userID, itemID uuid.UUID, filter shared.Filter) ([]inventory.StockBatch, error) {
	var rows []models.StockBatchModel
	query := r.applyFilter(
		r.db.WithContext(ctx).
			Model(&models.StockBatchModel{}).
			Where("item_id = ? AND user_id = ?", itemID, userID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return toBatches(rows), nil
}

// FindHistory finds every batch ever created for an item, oldest first
func (r *GormStockBatchRepository) FindHistory(ctx context.Context, userID, itemID uuid.UUID) ([]inventory.StockBatch, error) {
	var rows []models.StockBatchModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND user_id = ?", itemID, userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load batch history: %w", err)
	}
	return toBatches(rows), nil
}

// CountByItem counts batches ever created for an item
func (r *GormStockBatchRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Where("item_id = ?", itemID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return count, nil
}

// SumRemaining sums remaining quantity across an item's batches
func (r *GormStockBatchRepository) SumRemaining(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Where("item_id = ?", itemID).
		Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum remaining quantity: %w", err)
	}
	return total, nil
}

// Create inserts a new batch
func (r *GormStockBatchRepository) Create(ctx context.Context, batch *inventory.StockBatch) error {
	if err := r.db.WithContext(ctx).Create(models.StockBatchModelFromDomain(batch)).Error; err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// UpdateRemaining persists the remaining quantity of the given batches.
// An update that would raise a batch's remaining quantity matches no row and
// is reported as a concurrency conflict.
func (r *GormStockBatchRepository) UpdateRemaining(ctx context.Context, batches []*inventory.StockBatch) error {
	for _, b := range batches {
		result := r.db.WithContext(ctx).
			Model(&models.StockBatchModel{}).
			Where("id = ? AND remaining_quantity >= ?", b.ID, b.RemainingQuantity).
			Updates(map[string]any{
				"remaining_quantity": b.RemainingQuantity,
				"updated_at":         b.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("update batch %s: %w", b.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
	}
	return nil
}

// DeleteByItem deletes all batches of an item
func (r *GormStockBatchRepository) DeleteByItem(ctx context.Context, itemID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.StockBatchModel{}).Error; err != nil {
		return fmt.Errorf("delete batches: %w", err)
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormStockBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, StockBatchSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)
	if orderBy != "id" {
		query = query.Order("id " + orderDir)
	}
	return query
}

func toBatches(rows []models.StockBatchModel) []inventory.StockBatch {
	batches := make([]inventory.StockBatch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches
}

// Ensure GormStockBatchRepository implements StockBatchRepository
var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
