package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// ItemDetails holds the packaging and storage facts of an item.
// StockOnHand is the baseline seeded into the item's first batch.
type ItemDetails struct {
	shared.BaseEntity
	ItemID          uuid.UUID
	PackageType     PackageType
	Measure         string
	PackageWeight   *decimal.Decimal
	StorageLocation string
	StockOnHand     decimal.Decimal
}

// ItemDetailsInput carries the fields for NewItemDetails
type ItemDetailsInput struct {
	ItemID          uuid.UUID
	PackageType     PackageType
	Measure         string
	PackageWeight   *decimal.Decimal
	StorageLocation string
	StockOnHand     *decimal.Decimal
}

// NewItemDetails validates the input and creates item details.
// Loose items need a stock on hand, cartons and bags need a package weight.
func NewItemDetails(in ItemDetailsInput) (*ItemDetails, error) {
	measure := strings.TrimSpace(in.Measure)
	location := strings.TrimSpace(in.StorageLocation)

	var missing []string
	if in.ItemID == uuid.Nil {
		missing = append(missing, "item_id")
	}
	if in.PackageType == "" {
		missing = append(missing, "package_type")
	}
	if measure == "" {
		missing = append(missing, "measure")
	}
	if location == "" {
		missing = append(missing, "storage_location")
	}
	if len(missing) > 0 {
		return nil, shared.MissingFields(missing...)
	}

	if !in.PackageType.IsValid() {
		return nil, shared.NewValidationError("Package type must be one of loose, carton, bag", "package_type")
	}
	if in.PackageType == PackageTypeLoose && in.StockOnHand == nil {
		return nil, shared.NewValidationError("Stock on hand is required for loose items", "stock_on_hand")
	}
	if in.PackageType.IsPacked() && (in.PackageWeight == nil || !in.PackageWeight.IsPositive()) {
		return nil, shared.NewValidationError("Package weight is required for carton and bag items", "package_weight")
	}
	if in.PackageWeight != nil && !shared.FitsColumn(*in.PackageWeight) {
		return nil, shared.NewValidationError("Package weight allows at most 4 decimal places and 14 integer digits", "package_weight")
	}

	stockOnHand := decimal.Zero
	if in.StockOnHand != nil {
		if in.StockOnHand.IsNegative() {
			return nil, shared.NewValidationError("Stock on hand cannot be negative", "stock_on_hand")
		}
		if !shared.FitsColumn(*in.StockOnHand) {
			return nil, shared.NewValidationError("Stock on hand allows at most 4 decimal places and 14 integer digits", "stock_on_hand")
		}
		stockOnHand = *in.StockOnHand
	}

	now := time.Now()
	return &ItemDetails{
		BaseEntity: shared.BaseEntity{
			ID:        shared.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ItemID:          in.ItemID,
		PackageType:     in.PackageType,
		Measure:         measure,
		PackageWeight:   in.PackageWeight,
		StorageLocation: location,
		StockOnHand:     stockOnHand,
	}, nil
}
