package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/shared"
)

// CategoryModel is the persistence model for categories
type CategoryModel struct {
	OwnedModel
	Name  string `gorm:"type:varchar(100);not null"`
	Color string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		OwnedEntity: m.OwnedModel.ToDomain(),
		Name:        m.Name,
		Color:       m.Color,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name, Color: c.Color}
	m.FromDomainOwnedEntity(c.OwnedEntity)
	return m
}

// ItemModel is the persistence model for items
// A barcode is unique per user, so the owner column is declared here rather than
// through OwnedModel to share the composite index.
type ItemModel struct {
	BaseModel
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_items_user_barcode,priority:1"`
	CategoryID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name       string            `gorm:"type:varchar(200);not null"`
	Barcode    string            `gorm:"type:varchar(100);not null;uniqueIndex:idx_items_user_barcode,priority:2"`
	Price      decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Details    *ItemDetailsModel `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item, including its details when loaded
func (m *ItemModel) ToDomain() *catalog.Item {
	item := &catalog.Item{
		OwnedEntity: shared.OwnedEntity{BaseEntity: m.BaseModel.ToDomain(), UserID: m.UserID},
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Barcode:     m.Barcode,
		Price:       m.Price,
	}
	if m.Details != nil {
		item.Details = m.Details.ToDomain()
	}
	return item
}

// ItemModelFromDomain creates a persistence model from a domain Item.
// Details are persisted separately.
func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{
		UserID:     i.UserID,
		CategoryID: i.CategoryID,
		Name:       i.Name,
		Barcode:    i.Barcode,
		Price:      i.Price,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// ItemDetailsModel is the persistence model for item details
type ItemDetailsModel struct {
	BaseModel
	ItemID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	PackageType     string              `gorm:"type:varchar(20);not null"`
	Measure         string              `gorm:"type:varchar(20);not null"`
	PackageWeight   decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	StorageLocation string              `gorm:"type:varchar(200);not null"`
	StockOnHand     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ItemDetailsModel) TableName() string {
	return "item_details"
}

// ToDomain converts the persistence model to domain ItemDetails
func (m *ItemDetailsModel) ToDomain() *catalog.ItemDetails {
	d := &catalog.ItemDetails{
		BaseEntity:      m.BaseModel.ToDomain(),
		ItemID:          m.ItemID,
		PackageType:     catalog.PackageType(m.PackageType),
		Measure:         m.Measure,
		StorageLocation: m.StorageLocation,
		StockOnHand:     m.StockOnHand,
	}
	if m.PackageWeight.Valid {
		w := m.PackageWeight.Decimal
		d.PackageWeight = &w
	}
	return d
}

// ItemDetailsModelFromDomain creates a persistence model from domain ItemDetails
func ItemDetailsModelFromDomain(d *catalog.ItemDetails) *ItemDetailsModel {
	m := &ItemDetailsModel{
		ItemID:          d.ItemID,
		PackageType:     d.PackageType.String(),
		Measure:         d.Measure,
		StorageLocation: d.StorageLocation,
		StockOnHand:     d.StockOnHand,
	}
	if d.PackageWeight != nil {
		m.PackageWeight = decimal.NewNullDecimal(*d.PackageWeight)
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}
