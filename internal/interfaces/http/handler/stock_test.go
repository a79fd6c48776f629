package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stockRouter(svc *MockStockService) http.Handler {
	h := NewStockHandler(svc)
	router := newRouter()
	router.POST("/stock/batches", h.CreateBatch)
	router.POST("/stock/out", h.StockOut)
	router.GET("/stock/batches", h.ListBatches)
	router.GET("/stock/remaining", h.Remaining)
	return router
}

func TestStockHandler_CreateBatch(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()

	t.Run("first batch reports the seeded quantity", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("CreateBatch", mock.Anything, inventoryapp.CreateBatchRequest{
			ItemID:   itemID,
			UserID:   userID,
			Quantity: decimal.NewFromInt(10),
			Price:    decimal.RequireFromString("2.5"),
		}).Return(&inventoryapp.CreateBatchResult{
			Quantity:           decimal.NewFromInt(14),
			Price:              decimal.RequireFromString("2.5"),
			PackageType:        "loose",
			IsFirstTransaction: true,
			Batch:              inventoryapp.BatchResponse{ItemID: itemID},
		}, nil)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches",
			`{"item_id":"`+itemID.String()+`","user_id":"`+userID.String()+`","quantity":10,"price":"2.5"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var body CreateBatchResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		assert.Equal(t, "Stock added", body.Message)
		assert.Equal(t, "14", body.Quantity.String())
		assert.Equal(t, "loose", body.PackageType)
		assert.True(t, body.IsFirstTransaction)
		assert.Equal(t, itemID, body.Batch.ItemID)
		svc.AssertExpectations(t)
	})

	t.Run("absent fields are named before the service", func(t *testing.T) {
		svc := new(MockStockService)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches", `{"price":1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
		assert.Equal(t, "Missing required fields", resp.Error.Message)
		assert.Equal(t, []any{"item_id", "user_id", "quantity"}, resp.Error.Details["fields"])
		svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("absent quantity is not read as zero", func(t *testing.T) {
		svc := new(MockStockService)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches",
			`{"item_id":"`+itemID.String()+`","user_id":"`+userID.String()+`","price":"2.5"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing required fields", resp.Error.Message)
		assert.Equal(t, []any{"quantity"}, resp.Error.Details["fields"])
		svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("zero quantity still reaches the service", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("CreateBatch", mock.Anything, mock.MatchedBy(func(req inventoryapp.CreateBatchRequest) bool {
			return req.Quantity.IsZero()
		})).Return(nil, inventory.ErrInvalidQuantity)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches",
			`{"item_id":"`+itemID.String()+`","user_id":"`+userID.String()+`","quantity":0,"price":1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, inventory.ErrInvalidQuantity.Message, resp.Error.Message)
		svc.AssertExpectations(t)
	})

	t.Run("excess precision maps to a validation error", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("CreateBatch", mock.Anything, mock.Anything).Return(nil, inventory.ErrQuantityPrecision)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches",
			`{"item_id":"`+itemID.String()+`","user_id":"`+userID.String()+`","quantity":"1.00001","price":1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
		assert.Equal(t, []any{"quantity"}, resp.Error.Details["fields"])
	})

	t.Run("malformed id is rejected before the service", func(t *testing.T) {
		svc := new(MockStockService)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches",
			`{"item_id":"abc","user_id":"`+userID.String()+`","quantity":1,"price":1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
		svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("malformed quantity", func(t *testing.T) {
		svc := new(MockStockService)

		w, _ := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches", `{"quantity":"ten"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("CreateBatch", mock.Anything, mock.Anything).Return(nil, inventoryapp.ErrItemNotFound)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/batches",
			`{"item_id":"`+itemID.String()+`","user_id":"`+userID.String()+`","quantity":1,"price":1}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Item not found", resp.Error.Message)
	})
}

func TestStockHandler_StockOut(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()
	body := `{"item_id":"` + itemID.String() + `","user_id":"` + userID.String() + `","quantity":12}`

	t.Run("returns the FIFO withdrawals", func(t *testing.T) {
		b1, b2 := uuid.New(), uuid.New()
		svc := new(MockStockService)
		svc.On("StockOut", mock.Anything, inventoryapp.StockOutRequest{
			ItemID:         itemID,
			UserID:         userID,
			Quantity:       decimal.NewFromInt(12),
			IdempotencyKey: "key-1",
		}).Return(&inventoryapp.StockOutResult{
			StockOutID:      uuid.New(),
			Quantity:        decimal.NewFromInt(12),
			TotalCost:       decimal.NewFromInt(26),
			BlendedUnitCost: decimal.RequireFromString("2.1667"),
			Withdrawals: []inventoryapp.WithdrawalResponse{
				{BatchID: b1, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(2), Exhausted: true},
				{BatchID: b2, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(3), RemainingInBatch: decimal.NewFromInt(3)},
			},
		}, nil)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/out", body, "Idempotency-Key", "key-1")

		require.Equal(t, http.StatusCreated, w.Code)
		var out StockOutResponse
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		assert.Equal(t, "Stock withdrawn", out.Message)
		assert.Equal(t, "26", out.TotalCost.String())
		assert.Equal(t, "2.1667", out.BlendedUnitCost.String())
		require.Len(t, out.Withdrawals, 2)
		assert.Equal(t, b1, out.Withdrawals[0].BatchID)
		assert.True(t, out.Withdrawals[0].Exhausted)
		assert.Equal(t, "3", out.Withdrawals[1].RemainingInBatch.String())
		svc.AssertExpectations(t)
	})

	t.Run("absent quantity is reported as missing", func(t *testing.T) {
		svc := new(MockStockService)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/out",
			`{"item_id":"`+itemID.String()+`","user_id":"`+userID.String()+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
		assert.Equal(t, "Missing required fields", resp.Error.Message)
		assert.Equal(t, []any{"quantity"}, resp.Error.Details["fields"])
		svc.AssertNotCalled(t, "StockOut", mock.Anything, mock.Anything)
	})

	t.Run("insufficient stock carries both quantities", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("StockOut", mock.Anything, mock.Anything).
			Return(nil, inventory.NewInsufficientStockError(decimal.NewFromInt(3), decimal.NewFromInt(12)))

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/out", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "ERR_INSUFFICIENT_STOCK", resp.Error.Code)
		assert.Equal(t, "3", resp.Error.Details["available"])
		assert.Equal(t, "12", resp.Error.Details["requested"])
	})

	t.Run("out of stock", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("StockOut", mock.Anything, mock.Anything).Return(nil, inventory.ErrOutOfStock)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/out", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "ERR_OUT_OF_STOCK", resp.Error.Code)
	})

	t.Run("replayed idempotency key", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("StockOut", mock.Anything, mock.Anything).Return(nil, inventoryapp.ErrDuplicateStockOut)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/out", body, "Idempotency-Key", "key-1")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_DUPLICATE_REQUEST", resp.Error.Code)
		assert.Equal(t, "Idempotency-Key", resp.Error.Details["header"])
	})

	t.Run("lock contention", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("StockOut", mock.Anything, mock.Anything).Return(nil, shared.ErrConcurrencyConflict)

		w, resp := doRequest(t, stockRouter(svc), http.MethodPost, "/stock/out", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_CONCURRENCY_CONFLICT", resp.Error.Code)
	})
}

func TestStockHandler_ListBatches(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()
	query := "?item_id=" + itemID.String() + "&user_id=" + userID.String()

	t.Run("passes the ordering through", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("ListBatches", mock.Anything, userID, itemID, shared.Filter{OrderBy: "unit_price", OrderDir: "asc"}).
			Return([]inventoryapp.BatchResponse{{ItemID: itemID}, {ItemID: itemID}}, nil)

		w, resp := doRequest(t, stockRouter(svc), http.MethodGet, "/stock/batches"+query+"&order_by=unit_price&order_dir=asc", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var batches []inventoryapp.BatchResponse
		require.NoError(t, json.Unmarshal(resp.Data, &batches))
		assert.Len(t, batches, 2)
		svc.AssertExpectations(t)
	})

	t.Run("rejects an unknown sort field", func(t *testing.T) {
		svc := new(MockStockService)

		w, resp := doRequest(t, stockRouter(svc), http.MethodGet, "/stock/batches"+query+"&order_by=price", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
		svc.AssertNotCalled(t, "ListBatches", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("passes paging through", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("ListBatches", mock.Anything, userID, itemID, shared.Filter{Page: 2, PageSize: 10}).
			Return([]inventoryapp.BatchResponse{}, nil)

		w, _ := doRequest(t, stockRouter(svc), http.MethodGet, "/stock/batches"+query+"&page=2&page_size=10", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects an oversized page", func(t *testing.T) {
		svc := new(MockStockService)

		w, _ := doRequest(t, stockRouter(svc), http.MethodGet, "/stock/batches"+query+"&page_size=500", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "ListBatches", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStockHandler_Remaining(t *testing.T) {
	itemID := uuid.New()
	userID := uuid.New()

	t.Run("returns the stock left across batches", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("RemainingStock", mock.Anything, userID, itemID).Return(decimal.RequireFromString("13.5"), nil)

		w, resp := doRequest(t, stockRouter(svc), http.MethodGet,
			"/stock/remaining?item_id="+itemID.String()+"&user_id="+userID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body RemainingResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		assert.Equal(t, itemID, body.ItemID)
		assert.Equal(t, "13.5", body.RemainingQuantity.String())
		svc.AssertExpectations(t)
	})

	t.Run("names missing parameters", func(t *testing.T) {
		svc := new(MockStockService)

		w, resp := doRequest(t, stockRouter(svc), http.MethodGet, "/stock/remaining?item_id="+itemID.String(), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing required parameters", resp.Error.Message)
		assert.Equal(t, []any{"user_id"}, resp.Error.Details["fields"])
		svc.AssertNotCalled(t, "RemainingStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("RemainingStock", mock.Anything, userID, itemID).Return(decimal.Zero, inventoryapp.ErrItemNotFound)

		w, _ := doRequest(t, stockRouter(svc), http.MethodGet,
			"/stock/remaining?item_id="+itemID.String()+"&user_id="+userID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
