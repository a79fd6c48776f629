package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinv "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBarcodeExists is returned when the user already has an item with the barcode
var ErrBarcodeExists = shared.NewAlreadyExistsError("Item with this barcode already exists")

// ItemService handles item and item details operations
type ItemService struct {
	itemRepo     catalog.ItemRepository
	categoryRepo catalog.CategoryRepository
	txScope      appinv.TransactionScope
	logger       *zap.Logger
}

// NewItemService creates a new ItemService
func NewItemService(
	itemRepo catalog.ItemRepository,
	categoryRepo catalog.CategoryRepository,
	txScope appinv.TransactionScope,
	logger *zap.Logger,
) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		txScope:      txScope,
		logger:       logger,
	}
}

// Create creates a new item in one of the user's categories
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	price := decimal.Zero
	if req.Price != nil {
		price = *req.Price
	}
	item, err := catalog.NewItem(req.UserID, req.CategoryID, req.Name, req.Barcode, price)
	if err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.FindByIDForUser(ctx, req.UserID, req.CategoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	exists, err := s.itemRepo.ExistsByBarcode(ctx, req.UserID, item.Barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to check barcode: %w", err)
	}
	if exists {
		return nil, ErrBarcodeExists
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		// Lost a race with a concurrent create of the same barcode
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrBarcodeExists
		}
		s.logger.Error("Failed to save item", zap.Error(err),
			zap.String("user_id", req.UserID.String()),
			zap.String("barcode", item.Barcode))
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.Info("Item created",
		zap.String("item_id", item.ID.String()),
		zap.String("user_id", item.UserID.String()))

	resp := ToItemResponse(item)
	return &resp, nil
}

// CreateDetails records the packaging details of an item. An item has at most one set of details.
func (s *ItemService) CreateDetails(ctx context.Context, req CreateItemDetailsRequest) (*ItemDetailsResponse, error) {
	details, err := catalog.NewItemDetails(catalog.ItemDetailsInput{
		ItemID:          req.ItemID,
		PackageType:     catalog.PackageType(req.PackageType),
		Measure:         req.Measure,
		PackageWeight:   req.PackageWeight,
		StorageLocation: req.StorageLocation,
		StockOnHand:     req.StockOnHand,
	})
	if err != nil {
		return nil, err
	}

	item, err := s.findItem(ctx, req.UserID, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.Details != nil {
		return nil, shared.NewAlreadyExistsError("Item details already exist")
	}

	if err := s.itemRepo.SaveDetails(ctx, details); err != nil {
		s.logger.Error("Failed to save item details", zap.Error(err), zap.String("item_id", req.ItemID.String()))
		return nil, fmt.Errorf("failed to save item details: %w", err)
	}

	resp := ToItemDetailsResponse(details)
	return &resp, nil
}

// ListByCategory returns the items of a category with their details
func (s *ItemService) ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]ItemResponse, error) {
	if userID == uuid.Nil || categoryID == uuid.Nil {
		return nil, shared.MissingParameters("user_id", "category_id")
	}
	items, err := s.itemRepo.FindByCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i])
	}
	return responses, nil
}

// GetByID returns an item with its details
func (s *ItemService) GetByID(ctx context.Context, userID, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// UpdatePrice changes an item's selling price
func (s *ItemService) UpdatePrice(ctx context.Context, itemID uuid.UUID, req UpdateItemPriceRequest) (*ItemResponse, error) {
	item, err := s.findItem(ctx, req.UserID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.UpdatePrice(req.Price); err != nil {
		return nil, err
	}
	if err := s.itemRepo.UpdatePrice(ctx, item); err != nil {
		s.logger.Error("Failed to update item price", zap.Error(err), zap.String("item_id", itemID.String()))
		return nil, fmt.Errorf("failed to update item price: %w", err)
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Delete removes an item together with its consumption records, batches and details.
// Everything is deleted in one transaction; nothing is deleted when the item is not found.
func (s *ItemService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return shared.MissingParameters("user_id", "item_id")
	}

	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		item, err := repos.Items().LockForUpdate(ctx, userID, itemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return appinv.ErrItemNotFound
			}
			return fmt.Errorf("failed to load item: %w", err)
		}

		if err := repos.Consumption().DeleteByItem(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to delete consumption records: %w", err)
		}
		if err := repos.Batches().DeleteByItem(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to delete batches: %w", err)
		}
		if err := repos.Items().DeleteDetails(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to delete item details: %w", err)
		}
		if err := repos.Items().Delete(ctx, userID, item.ID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		s.logger.Error("Failed to delete item", zap.Error(err),
			zap.String("item_id", itemID.String()),
			zap.String("user_id", userID.String()))
		return err
	}

	s.logger.Info("Item deleted",
		zap.String("item_id", itemID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *ItemService) findItem(ctx context.Context, userID, itemID uuid.UUID) (*catalog.Item, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, shared.MissingParameters("user_id", "item_id")
	}
	item, err := s.itemRepo.FindByIDForUser(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, appinv.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return item, nil
}
