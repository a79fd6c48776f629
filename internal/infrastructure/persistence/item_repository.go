package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByIDForUser finds an item owned by a user, with its details when present
func (r *GormItemRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return model.ToDomain(), nil
}

// LockForUpdate loads an item owned by a user with SELECT ... FOR UPDATE.
// The row stays locked until the surrounding transaction commits or rolls back.
// Details are not loaded.
func (r *GormItemRepository) LockForUpdate(ctx context.Context, userID, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("lock item: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByCategory finds all items of a category, with details, ordered by name
func (r *GormItemRepository) FindByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]catalog.Item, error) {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Order("name ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]catalog.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// ExistsByBarcode checks if a user already has an item with the given barcode
func (r *GormItemRepository) ExistsByBarcode(ctx context.Context, userID uuid.UUID, barcode string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("user_id = ? AND barcode = ?", userID, barcode).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count items by barcode: %w", err)
	}
	return count > 0, nil
}

// Save creates or updates an item. Details are saved with SaveDetails.
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	if err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(models.ItemModelFromDomain(item)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

// UpdatePrice persists a new selling price
func (r *GormItemRepository) UpdatePrice(ctx context.Context, item *catalog.Item) error {
	result := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("id = ? AND user_id = ?", item.ID, item.UserID).
		Updates(map[string]any{
			"price":      item.Price,
			"updated_at": item.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update item price: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes an item
func (r *GormItemRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.ItemModel{})
	if result.Error != nil {
		return fmt.Errorf("delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindDetails finds the details of an item
func (r *GormItemRepository) FindDetails(ctx context.Context, itemID uuid.UUID) (*catalog.ItemDetails, error) {
	var model models.ItemDetailsModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find item details: %w", err)
	}
	return model.ToDomain(), nil
}

// SaveDetails creates or replaces the details of an item
func (r *GormItemRepository) SaveDetails(ctx context.Context, details *catalog.ItemDetails) error {
	if err := r.db.WithContext(ctx).Save(models.ItemDetailsModelFromDomain(details)).Error; err != nil {
		return fmt.Errorf("save item details: %w", err)
	}
	return nil
}

// DeleteDetails deletes the details of an item. Deleting absent details is not an error.
func (r *GormItemRepository) DeleteDetails(ctx context.Context, itemID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.ItemDetailsModel{}).Error; err != nil {
		return fmt.Errorf("delete item details: %w", err)
	}
	return nil
}

// Ensure GormItemRepository implements ItemRepository
var _ catalog.ItemRepository = (*GormItemRepository)(nil)
