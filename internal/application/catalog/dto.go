package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/catalog"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name" binding:"max=100"`
	Color  string    `json:"color" binding:"max=30"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// ToCategoryResponse converts a domain category to a response
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
	}
}

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	UserID     uuid.UUID        `json:"user_id"`
	CategoryID uuid.UUID        `json:"category_id"`
	Name       string           `json:"name" binding:"max=200"`
	Barcode    string           `json:"barcode" binding:"max=50"`
	Price      *decimal.Decimal `json:"price"`
}

// CreateItemDetailsRequest represents a request to record an item's packaging details
type CreateItemDetailsRequest struct {
	UserID          uuid.UUID        `json:"user_id"`
	ItemID          uuid.UUID        `json:"item_id"`
	PackageType     string           `json:"package_type" binding:"omitempty,oneof=loose carton bag"`
	Measure         string           `json:"measure" binding:"max=20"`
	PackageWeight   *decimal.Decimal `json:"package_weight"`
	StorageLocation string           `json:"storage_location" binding:"max=100"`
	StockOnHand     *decimal.Decimal `json:"stock_on_hand"`
}

// UpdateItemPriceRequest represents a request to change an item's price
type UpdateItemPriceRequest struct {
	UserID uuid.UUID       `json:"user_id"`
	Price  decimal.Decimal `json:"price"`
}

// ItemDetailsResponse represents item details in API responses
type ItemDetailsResponse struct {
	ID              uuid.UUID        `json:"id"`
	ItemID          uuid.UUID        `json:"item_id"`
	PackageType     string           `json:"package_type"`
	Measure         string           `json:"measure"`
	PackageWeight   *decimal.Decimal `json:"package_weight,omitempty"`
	StorageLocation string           `json:"storage_location"`
	StockOnHand     decimal.Decimal  `json:"stock_on_hand"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID         uuid.UUID            `json:"id"`
	UserID     uuid.UUID            `json:"user_id"`
	CategoryID uuid.UUID            `json:"category_id"`
	Name       string               `json:"name"`
	Barcode    string               `json:"barcode"`
	Price      decimal.Decimal      `json:"price"`
	Details    *ItemDetailsResponse `json:"details,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ToItemResponse converts a domain item to a response
func ToItemResponse(i *catalog.Item) ItemResponse {
	resp := ItemResponse{
		ID:         i.ID,
		UserID:     i.UserID,
		CategoryID: i.CategoryID,
		Name:       i.Name,
		Barcode:    i.Barcode,
		Price:      i.Price,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
	if i.Details != nil {
		d := ToItemDetailsResponse(i.Details)
		resp.Details = &d
	}
	return resp
}

// ToItemDetailsResponse converts domain item details to a response
func ToItemDetailsResponse(d *catalog.ItemDetails) ItemDetailsResponse {
	return ItemDetailsResponse{
		ID:              d.ID,
		ItemID:          d.ItemID,
		PackageType:     d.PackageType.String(),
		Measure:         d.Measure,
		PackageWeight:   d.PackageWeight,
		StorageLocation: d.StorageLocation,
		StockOnHand:     d.StockOnHand,
	}
}
