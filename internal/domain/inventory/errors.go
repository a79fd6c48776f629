package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Inventory errors
var (
	ErrInvalidQuantity  = shared.NewValidationError("Quantity must be greater than zero", "quantity")
	ErrInvalidUnitPrice = shared.NewValidationError("Price cannot be negative", "price")
	ErrInvalidWindow    = shared.NewValidationError("from_date must not be after to_date", "from_date", "to_date")
	ErrOutOfStock       = shared.ErrOutOfStock

	// Quantities and prices must fit the DECIMAL(18,4) columns exactly
	ErrQuantityPrecision  = shared.NewValidationError("Quantity allows at most 4 decimal places and 14 integer digits", "quantity")
	ErrUnitPricePrecision = shared.NewValidationError("Price allows at most 4 decimal places and 14 integer digits", "price")
)

// NewInsufficientStockError reports a withdrawal larger than the stock left across all batches
func NewInsufficientStockError(available, requested decimal.Decimal) *shared.DomainError {
	return &shared.DomainError{
		Code: shared.CodeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock available: requested %s, available %s",
			requested.String(), available.String()),
		Details: map[string]any{
			"available": available.String(),
			"requested": requested.String(),
		},
	}
}
