package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/identity"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stock errors
var (
	ErrItemNotFound       = shared.NewNotFoundError("Item not found")
	ErrItemOrUserNotFound = shared.NewNotFoundError("Item or user not found")
	ErrDuplicateStockOut  = shared.ErrDuplicateRequest.WithDetails(map[string]any{"header": "Idempotency-Key"})
)

const defaultIdempotencyTTL = 24 * time.Hour

// stockOutKey scopes a client supplied idempotency key to its account
func stockOutKey(userID uuid.UUID, key string) string {
	return "stock_out:" + userID.String() + ":" + key
}

// StockService handles stock-in, FIFO stock-out and valuation use cases
type StockService struct {
	items       catalog.ItemRepository
	users       identity.UserRepository
	batches     inventory.StockBatchRepository
	consumption inventory.ConsumptionRecordRepository
	txScope     TransactionScope
	locker      ItemLocker
	allocator   *inventory.FIFOAllocator
	replayer    *inventory.LedgerReplayer
	logger      *zap.Logger
	metrics     *telemetry.StockMetrics

	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration

	now func() time.Time
}

// NewStockService creates a new StockService
func NewStockService(
	items catalog.ItemRepository,
	users identity.UserRepository,
	batches inventory.StockBatchRepository,
	consumption inventory.ConsumptionRecordRepository,
	txScope TransactionScope,
	locker ItemLocker,
	logger *zap.Logger,
) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		items:          items,
		users:          users,
		batches:        batches,
		consumption:    consumption,
		txScope:        txScope,
		locker:         locker,
		allocator:      inventory.NewFIFOAllocator(),
		replayer:       inventory.NewLedgerReplayer(),
		logger:         logger,
		idempotencyTTL: defaultIdempotencyTTL,
		now:            time.Now,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling for stock-outs
func (s *StockService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetMetrics enables stock movement metrics
func (s *StockService) SetMetrics(metrics *telemetry.StockMetrics) {
	s.metrics = metrics
}

// SetClock overrides the time source used to stamp batches and consumption records
func (s *StockService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateBatch records a stock-in. The first batch of an item also carries the
// item's baseline stock on hand.
func (s *StockService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*CreateBatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "create_batch")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemID, req.ItemID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	if err := validateStockIn(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	release, err := s.locker.Lock(ctx, ItemLockKey(req.ItemID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	var result *CreateBatchResult
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().LockForUpdate(ctx, req.UserID, req.ItemID)
		if err != nil {
			return mapItemError(err)
		}

		count, err := repos.Batches().CountByItem(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("failed to count batches: %w", err)
		}

		details, err := repos.Items().FindDetails(ctx, item.ID)
		switch {
		case err == nil:
			item.Details = details
		case !errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("failed to load item details: %w", err)
		}

		isFirst := count == 0
		quantity := req.Quantity
		if isFirst {
			quantity = quantity.Add(item.BaselineStock())
		}

		batch, err := inventory.NewStockBatchAt(item.ID, req.UserID, quantity, req.Price, s.now())
		if err != nil {
			return err
		}
		if err := repos.Batches().Create(ctx, batch); err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}

		result = &CreateBatchResult{
			Quantity:           quantity,
			Price:              req.Price,
			PackageType:        item.PackageType().String(),
			IsFirstTransaction: isFirst,
			Batch:              ToBatchResponse(batch),
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to create batch", err,
			zap.String("item_id", req.ItemID.String()),
			zap.String("user_id", req.UserID.String()),
			zap.String("quantity", req.Quantity.String()),
			zap.String("price", req.Price.String()),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Stock batch created",
		zap.String("batch_id", result.Batch.ID.String()),
		zap.String("item_id", req.ItemID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("quantity", result.Quantity.String()),
		zap.String("price", result.Price.String()),
		zap.Bool("first_transaction", result.IsFirstTransaction),
	)
	s.metrics.BatchCreated(ctx, result.IsFirstTransaction)
	telemetry.SetOK(span)
	return result, nil
}

// StockOut withdraws stock from the item's oldest batches. Batch decrements and
// consumption records commit together or not at all.
func (s *StockService) StockOut(ctx context.Context, req StockOutRequest) (*StockOutResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "stock_out")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemID, req.ItemID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	if err := validateStockOut(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.idempotency != nil && req.IdempotencyKey != "" {
		key := stockOutKey(req.UserID, req.IdempotencyKey)
		claimed, err := s.idempotency.Claim(ctx, key, s.idempotencyTTL)
		if err != nil {
			s.logger.Error("Failed to claim idempotency key", zap.Error(err), zap.String("key", key))
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if !claimed {
			s.logger.Info("Duplicate stock-out rejected",
				zap.String("item_id", req.ItemID.String()),
				zap.String("idempotency_key", req.IdempotencyKey),
			)
			telemetry.RecordError(span, ErrDuplicateStockOut)
			return nil, ErrDuplicateStockOut
		}

		result, err := s.stockOut(ctx, req)
		if err != nil {
			// Release with a fresh context so a cancelled request still frees the key
			if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.Error(relErr), zap.String("key", key))
			}
			telemetry.RecordError(span, err)
			return nil, err
		}
		markStockOut(span, result)
		return result, nil
	}

	result, err := s.stockOut(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	markStockOut(span, result)
	return result, nil
}

func markStockOut(span trace.Span, result *StockOutResult) {
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStockOutID, result.StockOutID.String(),
		telemetry.SpanAttrBatches, len(result.Withdrawals),
	)
	telemetry.SetOK(span)
}

// recordRejection counts stock-outs refused for lack of stock
func (s *StockService) recordRejection(ctx context.Context, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return
	}
	switch domainErr.Code {
	case shared.CodeInsufficientStock:
		s.metrics.StockOutRejected(ctx, telemetry.RejectInsufficientStock)
	case shared.CodeOutOfStock:
		s.metrics.StockOutRejected(ctx, telemetry.RejectOutOfStock)
	}
}

func (s *StockService) stockOut(ctx context.Context, req StockOutRequest) (*StockOutResult, error) {
	release, err := s.locker.Lock(ctx, ItemLockKey(req.ItemID))
	if err != nil {
		return nil, err
	}
	defer release()

	var result *StockOutResult
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().LockForUpdate(ctx, req.UserID, req.ItemID)
		if err != nil {
			return mapItemError(err)
		}

		available, err := repos.Batches().FindAvailableForUpdate(ctx, req.UserID, item.ID)
		if err != nil {
			return fmt.Errorf("failed to load available batches: %w", err)
		}

		allocation, err := s.allocator.Allocate(available, req.Quantity)
		if err != nil {
			return err
		}

		touched := touchedBatches(available, allocation)
		if err := repos.Batches().UpdateRemaining(ctx, touched); err != nil {
			return fmt.Errorf("failed to update batch quantities: %w", err)
		}

		records := allocation.ConsumptionRecords(item.ID, req.UserID, s.now())
		if err := repos.Consumption().CreateBatch(ctx, records); err != nil {
			return fmt.Errorf("failed to record consumption: %w", err)
		}

		result = toStockOutResult(records[0].StockOutID, allocation)
		return nil
	})
	if err != nil {
		s.logFailure("Failed to allocate stock-out", err,
			zap.String("item_id", req.ItemID.String()),
			zap.String("user_id", req.UserID.String()),
			zap.String("quantity", req.Quantity.String()),
		)
		s.recordRejection(ctx, err)
		return nil, err
	}
	s.metrics.StockOutAllocated(ctx, result.TotalCost)

	s.logger.Info("Stock-out allocated",
		zap.String("stock_out_id", result.StockOutID.String()),
		zap.String("item_id", req.ItemID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("total_cost", result.TotalCost.String()),
		zap.Int("batches", len(result.Withdrawals)),
	)
	return result, nil
}

// ListBatches returns an item's batches, newest first
func (s *StockService) ListBatches(ctx context.Context, userID, itemID uuid.UUID, filter shared.Filter) ([]BatchResponse, error) {
	if itemID == uuid.Nil || userID == uuid.Nil {
		return nil, shared.MissingFields("item_id", "user_id")
	}

	batches, err := s.batches.FindByItem(ctx, userID, itemID, filter)
	if err != nil {
		s.logger.Error("Failed to list batches", zap.Error(err),
			zap.String("item_id", itemID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses, nil
}

// Valuate replays the item's full history and reports the window [From, To]
func (s *StockService) Valuate(ctx context.Context, req ValuationRequest) (*ValuationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "valuate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemID, req.ItemID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
	)

	if missing := missingValuationParams(req); len(missing) > 0 {
		err := shared.MissingParameters(missing...)
		telemetry.RecordError(span, err)
		return nil, err
	}
	window, err := inventory.NewValuationWindow(req.From, req.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	item, err := s.findOwnedItem(ctx, req.UserID, req.ItemID)
	if err != nil {
		s.logFailure("Failed to load item for valuation", err,
			zap.String("item_id", req.ItemID.String()),
			zap.String("user_id", req.UserID.String()),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	batches, err := s.batches.FindHistory(ctx, req.UserID, item.ID)
	if err != nil {
		s.logger.Error("Failed to load batch history", zap.Error(err), zap.String("item_id", item.ID.String()))
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load batch history: %w", err)
	}
	records, err := s.consumption.FindHistory(ctx, req.UserID, item.ID)
	if err != nil {
		s.logger.Error("Failed to load consumption history", zap.Error(err), zap.String("item_id", item.ID.String()))
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load consumption history: %w", err)
	}

	report := s.replayer.Replay(inventory.MergeHistory(batches, records), window)
	telemetry.SetAttributes(span,
		"events", len(batches)+len(records),
		"closing_quantity", report.ClosingQty.String(),
	)
	telemetry.SetOK(span)

	return &ValuationResult{
		ItemID:      item.ID,
		ItemName:    item.Name,
		PackageType: item.PackageType().String(),
		Measure:     item.Measure(),
		Report:      report,
	}, nil
}

// findOwnedItem loads an item owned by an existing account
func (s *StockService) findOwnedItem(ctx context.Context, userID, itemID uuid.UUID) (*catalog.Item, error) {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrItemOrUserNotFound
	}

	item, err := s.items.FindByIDForUser(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrItemOrUserNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return item, nil
}

// logFailure logs domain errors at info and everything else at error
func (s *StockService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.logger.Info(msg, append(fields, zap.String("code", domainErr.Code))...)
		return
	}
	s.logger.Error(msg, fields...)
}

func mapItemError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrItemNotFound
	}
	return fmt.Errorf("failed to load item: %w", err)
}

func validateStockIn(req CreateBatchRequest) error {
	if missing := missingIDs(req.ItemID, req.UserID); len(missing) > 0 {
		return shared.MissingFields(missing...)
	}
	if !req.Quantity.IsPositive() {
		return inventory.ErrInvalidQuantity
	}
	if !shared.FitsColumn(req.Quantity) {
		return inventory.ErrQuantityPrecision
	}
	if req.Price.IsNegative() {
		return inventory.ErrInvalidUnitPrice
	}
	if !shared.FitsColumn(req.Price) {
		return inventory.ErrUnitPricePrecision
	}
	return nil
}

func validateStockOut(req StockOutRequest) error {
	if missing := missingIDs(req.ItemID, req.UserID); len(missing) > 0 {
		return shared.MissingFields(missing...)
	}
	if !req.Quantity.IsPositive() {
		return inventory.ErrInvalidQuantity
	}
	if !shared.FitsColumn(req.Quantity) {
		return inventory.ErrQuantityPrecision
	}
	return nil
}

func missingIDs(itemID, userID uuid.UUID) []string {
	var missing []string
	if itemID == uuid.Nil {
		missing = append(missing, "item_id")
	}
	if userID == uuid.Nil {
		missing = append(missing, "user_id")
	}
	return missing
}

func missingValuationParams(req ValuationRequest) []string {
	missing := missingIDs(req.ItemID, req.UserID)
	if req.From.IsZero() {
		missing = append(missing, "from_date")
	}
	if req.To.IsZero() {
		missing = append(missing, "to_date")
	}
	return missing
}

// touchedBatches returns the batches an allocation drew from
func touchedBatches(batches []*inventory.StockBatch, allocation *inventory.Allocation) []*inventory.StockBatch {
	drawn := make(map[uuid.UUID]struct{}, len(allocation.Withdrawals))
	for _, w := range allocation.Withdrawals {
		drawn[w.BatchID] = struct{}{}
	}
	touched := make([]*inventory.StockBatch, 0, len(drawn))
	for _, b := range batches {
		if _, ok := drawn[b.ID]; ok {
			touched = append(touched, b)
		}
	}
	return touched
}

func toStockOutResult(stockOutID uuid.UUID, allocation *inventory.Allocation) *StockOutResult {
	withdrawals := make([]WithdrawalResponse, len(allocation.Withdrawals))
	for i, w := range allocation.Withdrawals {
		withdrawals[i] = WithdrawalResponse{
			BatchID:          w.BatchID,
			Quantity:         w.Quantity,
			UnitPrice:        w.UnitPrice,
			Cost:             w.Cost,
			RemainingInBatch: w.RemainingInBatch,
			Exhausted:        w.Exhausted,
		}
	}
	return &StockOutResult{
		StockOutID:      stockOutID,
		Quantity:        allocation.Requested,
		TotalCost:       allocation.TotalCost,
		BlendedUnitCost: allocation.BlendedUnitCost,
		Withdrawals:     withdrawals,
	}
}

// RemainingStock returns the stock left across all of an item's batches
func (s *StockService) RemainingStock(ctx context.Context, userID, itemID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.items.FindByIDForUser(ctx, userID, itemID); err != nil {
		return decimal.Zero, mapItemError(err)
	}
	total, err := s.batches.SumRemaining(ctx, itemID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum remaining stock: %w", err)
	}
	return total, nil
}
