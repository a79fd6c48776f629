package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogapp "github.com/stockledger/backend/internal/application/catalog"
	identityapp "github.com/stockledger/backend/internal/application/identity"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) CreateBatch(ctx context.Context, req inventoryapp.CreateBatchRequest) (*inventoryapp.CreateBatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.CreateBatchResult), args.Error(1)
}

func (m *MockStockService) StockOut(ctx context.Context, req inventoryapp.StockOutRequest) (*inventoryapp.StockOutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.StockOutResult), args.Error(1)
}

func (m *MockStockService) ListBatches(ctx context.Context, userID, itemID uuid.UUID, filter shared.Filter) ([]inventoryapp.BatchResponse, error) {
	args := m.Called(ctx, userID, itemID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventoryapp.BatchResponse), args.Error(1)
}

func (m *MockStockService) RemainingStock(ctx context.Context, userID, itemID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStockService) Valuate(ctx context.Context, req inventoryapp.ValuationRequest) (*inventoryapp.ValuationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.ValuationResult), args.Error(1)
}

type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) Create(ctx context.Context, req catalogapp.CreateItemRequest) (*catalogapp.ItemResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ItemResponse), args.Error(1)
}

func (m *MockItemService) CreateDetails(ctx context.Context, req catalogapp.CreateItemDetailsRequest) (*catalogapp.ItemDetailsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ItemDetailsResponse), args.Error(1)
}

func (m *MockItemService) ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]catalogapp.ItemResponse, error) {
	args := m.Called(ctx, userID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.ItemResponse), args.Error(1)
}

func (m *MockItemService) GetByID(ctx context.Context, userID, itemID uuid.UUID) (*catalogapp.ItemResponse, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ItemResponse), args.Error(1)
}

func (m *MockItemService) UpdatePrice(ctx context.Context, itemID uuid.UUID, req catalogapp.UpdateItemPriceRequest) (*catalogapp.ItemResponse, error) {
	args := m.Called(ctx, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ItemResponse), args.Error(1)
}

func (m *MockItemService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context, userID uuid.UUID) ([]catalogapp.CategoryResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.CategoryResponse), args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, req catalogapp.CreateCategoryRequest) (*catalogapp.CategoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.CategoryResponse), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input identityapp.RegisterUserInput) (*identityapp.UserDTO, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserDTO), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, id uuid.UUID) (*identityapp.UserDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserDTO), args.Error(1)
}

// apiResponse mirrors dto.Response with a raw data field
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		RequestID string         `json:"request_id"`
		Details   map[string]any `json:"details"`
	} `json:"error"`
}

func newRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}
