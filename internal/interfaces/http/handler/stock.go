package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
)

// StockService is the stock use cases used by StockHandler
type StockService interface {
	CreateBatch(ctx context.Context, req inventoryapp.CreateBatchRequest) (*inventoryapp.CreateBatchResult, error)
	StockOut(ctx context.Context, req inventoryapp.StockOutRequest) (*inventoryapp.StockOutResult, error)
	ListBatches(ctx context.Context, userID, itemID uuid.UUID, filter shared.Filter) ([]inventoryapp.BatchResponse, error)
	RemainingStock(ctx context.Context, userID, itemID uuid.UUID) (decimal.Decimal, error)
}

// StockHandler handles stock-in, stock-out and batch listing
type StockHandler struct {
	BaseHandler
	stock StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// CreateBatchRequest is the body of POST /stock/batches
type CreateBatchRequest struct {
	ItemID   string           `json:"item_id"`
	UserID   string           `json:"user_id"`
	Quantity *decimal.Decimal `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

// CreateBatchResponse is the body of a successful stock-in
type CreateBatchResponse struct {
	Message            string                     `json:"message"`
	Quantity           decimal.Decimal            `json:"quantity"`
	Price              decimal.Decimal            `json:"price"`
	PackageType        string                     `json:"package_type"`
	IsFirstTransaction bool                       `json:"is_first_transaction"`
	Batch              inventoryapp.BatchResponse `json:"batch"`
}

// StockOutRequest is the body of POST /stock/out
type StockOutRequest struct {
	ItemID   string           `json:"item_id"`
	UserID   string           `json:"user_id"`
	Quantity *decimal.Decimal `json:"quantity"`
}

// StockOutResponse is the body of a successful stock-out
type StockOutResponse struct {
	Message         string                            `json:"message"`
	StockOutID      uuid.UUID                         `json:"stock_out_id"`
	Quantity        decimal.Decimal                   `json:"quantity"`
	Withdrawals     []inventoryapp.WithdrawalResponse `json:"withdrawals"`
	BlendedUnitCost decimal.Decimal                   `json:"blended_unit_cost"`
	TotalCost       decimal.Decimal                   `json:"total_cost"`
}

// ListBatchesQuery is the query of GET /stock/batches
type ListBatchesQuery struct {
	ItemID   string `form:"item_id"`
	UserID   string `form:"user_id"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at id unit_price remaining_quantity original_quantity"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RemainingQuery is the query of GET /stock/remaining
type RemainingQuery struct {
	ItemID string `form:"item_id"`
	UserID string `form:"user_id"`
}

// RemainingResponse is the stock left across an item's batches
type RemainingResponse struct {
	ItemID            uuid.UUID       `json:"item_id"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
}

// CreateBatch records a stock-in
func (h *StockHandler) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if missing := missingStockFields(req.ItemID, req.UserID, req.Quantity, req.Price); len(missing) > 0 {
		h.HandleError(c, shared.MissingFields(missing...))
		return
	}
	itemID, userID, ok := h.parseIDs(c, req.ItemID, req.UserID)
	if !ok {
		return
	}

	result, err := h.stock.CreateBatch(c.Request.Context(), inventoryapp.CreateBatchRequest{
		ItemID:   itemID,
		UserID:   userID,
		Quantity: *req.Quantity,
		Price:    *req.Price,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CreateBatchResponse{
		Message:            "Stock added",
		Quantity:           result.Quantity,
		Price:              result.Price,
		PackageType:        result.PackageType,
		IsFirstTransaction: result.IsFirstTransaction,
		Batch:              result.Batch,
	})
}

// StockOut consumes stock in FIFO order. A repeated Idempotency-Key is rejected.
func (h *StockHandler) StockOut(c *gin.Context) {
	var req StockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if missing := missingStockFields(req.ItemID, req.UserID, req.Quantity); len(missing) > 0 {
		h.HandleError(c, shared.MissingFields(missing...))
		return
	}
	itemID, userID, ok := h.parseIDs(c, req.ItemID, req.UserID)
	if !ok {
		return
	}

	result, err := h.stock.StockOut(c.Request.Context(), inventoryapp.StockOutRequest{
		ItemID:         itemID,
		UserID:         userID,
		Quantity:       *req.Quantity,
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, StockOutResponse{
		Message:         "Stock withdrawn",
		StockOutID:      result.StockOutID,
		Quantity:        result.Quantity,
		Withdrawals:     result.Withdrawals,
		BlendedUnitCost: result.BlendedUnitCost,
		TotalCost:       result.TotalCost,
	})
}

// ListBatches returns an item's batches, newest first unless order_by is given
func (h *StockHandler) ListBatches(c *gin.Context) {
	var q ListBatchesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	itemID, userID, ok := h.parseIDs(c, q.ItemID, q.UserID)
	if !ok {
		return
	}

	batches, err := h.stock.ListBatches(c.Request.Context(), userID, itemID, shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// Remaining returns the quantity still available for stock-out
func (h *StockHandler) Remaining(c *gin.Context) {
	var q RemainingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if missing := missingStockFields(q.ItemID, q.UserID); len(missing) > 0 {
		h.HandleError(c, shared.MissingParameters(missing...))
		return
	}
	itemID, userID, ok := h.parseIDs(c, q.ItemID, q.UserID)
	if !ok {
		return
	}

	remaining, err := h.stock.RemainingStock(c.Request.Context(), userID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RemainingResponse{ItemID: itemID, RemainingQuantity: remaining})
}

func (h *StockHandler) parseIDs(c *gin.Context, rawItemID, rawUserID string) (itemID, userID uuid.UUID, ok bool) {
	itemID, err := parseUUID(rawItemID, "item_id")
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = parseUUID(rawUserID, "user_id")
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return itemID, userID, true
}

// missingStockFields names absent body fields. amounts are quantity then price.
func missingStockFields(itemID, userID string, amounts ...*decimal.Decimal) []string {
	var missing []string
	if strings.TrimSpace(itemID) == "" {
		missing = append(missing, "item_id")
	}
	if strings.TrimSpace(userID) == "" {
		missing = append(missing, "user_id")
	}
	for i, amount := range amounts {
		if amount == nil {
			missing = append(missing, []string{"quantity", "price"}[i])
		}
	}
	return missing
}
