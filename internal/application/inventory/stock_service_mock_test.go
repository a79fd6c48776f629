package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemLocker is a mock implementation of ItemLocker
type MockItemLocker struct {
	mock.Mock
}

func (m *MockItemLocker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// MockTransactionScope is a mock implementation of TransactionScope
type MockTransactionScope struct {
	mock.Mock
}

func (m *MockTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

type mockedStockService struct {
	service *StockService
	locker  *MockItemLocker
	store   *MockIdempotencyStore
	txScope *MockTransactionScope
}

func newMockedStockService() *mockedStockService {
	locker := new(MockItemLocker)
	store := new(MockIdempotencyStore)
	txScope := new(MockTransactionScope)
	service := NewStockService(nil, nil, nil, nil, txScope, locker, nil)
	service.SetIdempotencyStore(store, time.Hour)
	return &mockedStockService{service: service, locker: locker, store: store, txScope: txScope}
}

func (m *mockedStockService) assertExpectations(t *testing.T) {
	m.locker.AssertExpectations(t)
	m.store.AssertExpectations(t)
	m.txScope.AssertExpectations(t)
}

func validStockOut(key string) StockOutRequest {
	return StockOutRequest{
		ItemID:         uuid.New(),
		UserID:         uuid.New(),
		Quantity:       decimal.NewFromInt(3),
		IdempotencyKey: key,
	}
}

func TestStockService_StockOut_LockConflict(t *testing.T) {
	m := newMockedStockService()
	req := validStockOut("req-1")
	key := stockOutKey(req.UserID, "req-1")

	m.store.On("Claim", mock.Anything, key, time.Hour).Return(true, nil)
	m.locker.On("Lock", mock.Anything, ItemLockKey(req.ItemID)).Return(nil, shared.ErrConcurrencyConflict)
	m.store.On("Release", mock.Anything, key).Return(nil)

	result, err := m.service.StockOut(context.Background(), req)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	m.txScope.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStockService_StockOut_ClaimError(t *testing.T) {
	m := newMockedStockService()
	req := validStockOut("req-2")
	storeErr := errors.New("redis: connection refused")

	m.store.On("Claim", mock.Anything, stockOutKey(req.UserID, "req-2"), time.Hour).Return(false, storeErr)

	result, err := m.service.StockOut(context.Background(), req)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Contains(t, err.Error(), "failed to claim idempotency key")
	m.locker.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStockService_StockOut_DuplicateSkipsLock(t *testing.T) {
	m := newMockedStockService()
	req := validStockOut("req-3")

	m.store.On("Claim", mock.Anything, stockOutKey(req.UserID, "req-3"), time.Hour).Return(false, nil)

	_, err := m.service.StockOut(context.Background(), req)
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
	m.locker.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStockService_StockOut_TransactionFailureReleasesLockAndKey(t *testing.T) {
	m := newMockedStockService()
	req := validStockOut("req-4")
	key := stockOutKey(req.UserID, "req-4")
	txErr := errors.New("deadlock detected")

	released := 0
	m.store.On("Claim", mock.Anything, key, time.Hour).Return(true, nil)
	m.locker.On("Lock", mock.Anything, ItemLockKey(req.ItemID)).Return(func() { released++ }, nil)
	m.txScope.On("Execute", mock.Anything, mock.Anything).Return(txErr)
	m.store.On("Release", mock.Anything, key).Return(errors.New("release failed"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := m.service.StockOut(ctx, req)
	assert.ErrorIs(t, err, txErr)
	assert.Equal(t, 1, released)
	m.assertExpectations(t)
}

func TestStockService_StockOut_WithoutKeySkipsStore(t *testing.T) {
	m := newMockedStockService()
	req := validStockOut("")

	m.locker.On("Lock", mock.Anything, ItemLockKey(req.ItemID)).Return(nil, shared.ErrConcurrencyConflict)

	_, err := m.service.StockOut(context.Background(), req)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	m.store.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStockService_CreateBatch_LockConflict(t *testing.T) {
	m := newMockedStockService()
	req := CreateBatchRequest{
		ItemID:   uuid.New(),
		UserID:   uuid.New(),
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(2),
	}

	m.locker.On("Lock", mock.Anything, ItemLockKey(req.ItemID)).Return(nil, shared.ErrConcurrencyConflict)

	result, err := m.service.CreateBatch(context.Background(), req)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	m.txScope.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStockService_ValidationPrecedesPorts(t *testing.T) {
	m := newMockedStockService()

	_, err := m.service.StockOut(context.Background(), StockOutRequest{
		ItemID:         uuid.New(),
		UserID:         uuid.New(),
		Quantity:       decimal.Zero,
		IdempotencyKey: "req-5",
	})
	require.Error(t, err)
	m.store.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
	m.locker.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
}

func TestItemLockKey(t *testing.T) {
	id := uuid.MustParse("6f1f7a52-3c2d-4d8e-9f60-1b2c3d4e5f60")
	assert.Equal(t, "stock:item:6f1f7a52-3c2d-4d8e-9f60-1b2c3d4e5f60", ItemLockKey(id))
	assert.Equal(t, "stock_out:6f1f7a52-3c2d-4d8e-9f60-1b2c3d4e5f60:abc", stockOutKey(id, "abc"))
}
