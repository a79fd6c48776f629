package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/inventory"
)

// CreateBatchRequest is the input of a stock-in
type CreateBatchRequest struct {
	ItemID   uuid.UUID
	UserID   uuid.UUID
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// CreateBatchResult is the outcome of a stock-in.
// Quantity includes the seeded stock on hand when IsFirstTransaction is true.
type CreateBatchResult struct {
	Quantity           decimal.Decimal
	Price              decimal.Decimal
	PackageType        string
	IsFirstTransaction bool
	Batch              BatchResponse
}

// StockOutRequest is the input of a stock-out
type StockOutRequest struct {
	ItemID         uuid.UUID
	UserID         uuid.UUID
	Quantity       decimal.Decimal
	IdempotencyKey string // Optional; a replayed key is rejected
}

// WithdrawalResponse is the quantity drawn from one batch
type WithdrawalResponse struct {
	BatchID          uuid.UUID       `json:"batch_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Cost             decimal.Decimal `json:"cost"`
	RemainingInBatch decimal.Decimal `json:"remaining_in_batch"`
	Exhausted        bool            `json:"exhausted"`
}

// StockOutResult is the outcome of a stock-out
type StockOutResult struct {
	StockOutID      uuid.UUID            `json:"stock_out_id"`
	Quantity        decimal.Decimal      `json:"quantity"`
	TotalCost       decimal.Decimal      `json:"total_cost"`
	BlendedUnitCost decimal.Decimal      `json:"blended_unit_cost"`
	Withdrawals     []WithdrawalResponse `json:"withdrawals"`
}

// BatchResponse represents a stock batch in API responses
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ItemID            uuid.UUID       `json:"item_id"`
	UserID            uuid.UUID       `json:"user_id"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	RemainingValue    decimal.Decimal `json:"remaining_value"`
	Exhausted         bool            `json:"exhausted"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToBatchResponse converts a domain batch to a response
func ToBatchResponse(b *inventory.StockBatch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		ItemID:            b.ItemID,
		UserID:            b.UserID,
		OriginalQuantity:  b.OriginalQuantity,
		RemainingQuantity: b.RemainingQuantity,
		UnitPrice:         b.UnitPrice,
		RemainingValue:    b.RemainingValue(),
		Exhausted:         b.IsExhausted(),
		CreatedAt:         b.CreatedAt,
	}
}

// ValuationRequest asks for the valuation of an item over [From, To]
type ValuationRequest struct {
	ItemID uuid.UUID
	UserID uuid.UUID
	From   time.Time
	To     time.Time
}

// ValuationResult is a valuation report together with the item it describes
type ValuationResult struct {
	ItemID      uuid.UUID
	ItemName    string
	PackageType string
	Measure     string
	Report      *inventory.ValuationReport
}
