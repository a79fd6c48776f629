package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogapp "github.com/stockledger/backend/internal/application/catalog"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// ItemService is the item use cases used by ItemHandler
type ItemService interface {
	Create(ctx context.Context, req catalogapp.CreateItemRequest) (*catalogapp.ItemResponse, error)
	CreateDetails(ctx context.Context, req catalogapp.CreateItemDetailsRequest) (*catalogapp.ItemDetailsResponse, error)
	ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]catalogapp.ItemResponse, error)
	GetByID(ctx context.Context, userID, itemID uuid.UUID) (*catalogapp.ItemResponse, error)
	UpdatePrice(ctx context.Context, itemID uuid.UUID, req catalogapp.UpdateItemPriceRequest) (*catalogapp.ItemResponse, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
}

// ItemHandler handles item and item details endpoints
type ItemHandler struct {
	BaseHandler
	items ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(items ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// CreateItemRequest is the body of POST /items
type CreateItemRequest struct {
	UserID     string           `json:"user_id"`
	CategoryID string           `json:"category_id"`
	Name       string           `json:"name" binding:"max=200"`
	Barcode    string           `json:"barcode" binding:"max=50"`
	Price      *decimal.Decimal `json:"price"`
}

// CreateItemDetailsRequest is the body of POST /items/details
type CreateItemDetailsRequest struct {
	UserID          string           `json:"user_id"`
	ItemID          string           `json:"item_id"`
	PackageType     string           `json:"package_type" binding:"omitempty,oneof=loose carton bag"`
	Measure         string           `json:"measure" binding:"max=20"`
	PackageWeight   *decimal.Decimal `json:"package_weight"`
	StorageLocation string           `json:"storage_location" binding:"max=100"`
	StockOnHand     *decimal.Decimal `json:"stock_on_hand"`
}

// UpdateItemPriceRequest is the body of PUT /items/:itemId/price
type UpdateItemPriceRequest struct {
	UserID string          `json:"user_id"`
	Price  decimal.Decimal `json:"price"`
}

// Create adds an item to one of the user's categories
func (h *ItemHandler) Create(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	categoryID, err := parseUUID(req.CategoryID, "category_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	item, err := h.items.Create(c.Request.Context(), catalogapp.CreateItemRequest{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       req.Name,
		Barcode:    req.Barcode,
		Price:      req.Price,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// CreateDetails records an item's packaging details
func (h *ItemHandler) CreateDetails(c *gin.Context) {
	var req CreateItemDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	itemID, err := parseUUID(req.ItemID, "item_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	details, err := h.items.CreateDetails(c.Request.Context(), catalogapp.CreateItemDetailsRequest{
		UserID:          userID,
		ItemID:          itemID,
		PackageType:     req.PackageType,
		Measure:         req.Measure,
		PackageWeight:   req.PackageWeight,
		StorageLocation: req.StorageLocation,
		StockOnHand:     req.StockOnHand,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, details)
}

// ListByCategory returns the items of a category with their details
func (h *ItemHandler) ListByCategory(c *gin.Context) {
	categoryID, err := parseUUID(c.Param("categoryId"), "category_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	userID, err := parseUUID(c.Query("user_id"), "user_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items, err := h.items.ListByCategory(c.Request.Context(), userID, categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get returns an item with its details
func (h *ItemHandler) Get(c *gin.Context) {
	userID, itemID, ok := h.ownedItemParams(c)
	if !ok {
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), userID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// UpdatePrice changes an item's selling price
func (h *ItemHandler) UpdatePrice(c *gin.Context) {
	itemID, err := parseUUID(c.Param("itemId"), "item_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req UpdateItemPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	item, err := h.items.UpdatePrice(c.Request.Context(), itemID, catalogapp.UpdateItemPriceRequest{
		UserID: userID,
		Price:  req.Price,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete removes an item with its details, batches and consumption records
func (h *ItemHandler) Delete(c *gin.Context) {
	userID, itemID, ok := h.ownedItemParams(c)
	if !ok {
		return
	}

	if err := h.items.Delete(c.Request.Context(), userID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageData{Message: "Item deleted"})
}

func (h *ItemHandler) ownedItemParams(c *gin.Context) (userID, itemID uuid.UUID, ok bool) {
	itemID, err := parseUUID(c.Param("itemId"), "item_id")
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = parseUUID(c.Query("user_id"), "user_id")
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, itemID, true
}
