package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// PackageType describes how an item is packed
type PackageType string

const (
	PackageTypeLoose  PackageType = "loose"
	PackageTypeCarton PackageType = "carton"
	PackageTypeBag    PackageType = "bag"
)

// IsValid checks if the package type is valid
func (p PackageType) IsValid() bool {
	switch p {
	case PackageTypeLoose, PackageTypeCarton, PackageTypeBag:
		return true
	}
	return false
}

// IsPacked returns true for package types sold by weight per package
func (p PackageType) IsPacked() bool {
	return p == PackageTypeCarton || p == PackageTypeBag
}

// String returns the string representation
func (p PackageType) String() string {
	return string(p)
}

// Item is a stock-keeping unit owned by one account
type Item struct {
	shared.OwnedEntity
	CategoryID uuid.UUID
	Name       string
	Barcode    string
	Price      decimal.Decimal
	Details    *ItemDetails // Loaded with the item when present
}

// NewItem creates a new item
func NewItem(userID, categoryID uuid.UUID, name, barcode string, price decimal.Decimal) (*Item, error) {
	name = strings.TrimSpace(name)
	barcode = strings.TrimSpace(barcode)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if barcode == "" {
		missing = append(missing, "barcode")
	}
	if categoryID == uuid.Nil {
		missing = append(missing, "category_id")
	}
	if userID == uuid.Nil {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return nil, shared.MissingFields(missing...)
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	return &Item{
		OwnedEntity: shared.OwnedEntity{
			BaseEntity: shared.NewBaseEntity(),
			UserID:     userID,
		},
		CategoryID: categoryID,
		Name:       name,
		Barcode:    barcode,
		Price:      price,
	}, nil
}

// UpdatePrice changes the item's selling price
func (i *Item) UpdatePrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	i.Price = price
	i.UpdatedAt = time.Now()
	return nil
}

// PackageType returns the package type from the item's details, or "" when none are recorded
func (i *Item) PackageType() PackageType {
	if i.Details == nil {
		return ""
	}
	return i.Details.PackageType
}

// Measure returns the unit of measure from the item's details
func (i *Item) Measure() string {
	if i.Details == nil {
		return ""
	}
	return i.Details.Measure
}

// BaselineStock returns the stock on hand recorded before the first stock-in
func (i *Item) BaselineStock() decimal.Decimal {
	if i.Details == nil {
		return decimal.Zero
	}
	return i.Details.StockOnHand
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("Price cannot be negative", "price")
	}
	if !shared.FitsColumn(price) {
		return shared.NewValidationError("Price allows at most 4 decimal places and 14 integer digits", "price")
	}
	return nil
}
