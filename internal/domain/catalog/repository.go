package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByIDForUser finds a category owned by a user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Category, error)

	// FindAllForUser finds all categories of a user, oldest first
	FindAllForUser(ctx context.Context, userID uuid.UUID) ([]Category, error)

	// ExistsByName checks if a user already has a category with the given name
	ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error)

	// CountForUser counts categories of a user
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// SaveBatch creates several categories at once
	SaveBatch(ctx context.Context, categories []*Category) error
}

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// FindByIDForUser finds an item owned by a user, with its details when present
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Item, error)

	// LockForUpdate loads an item owned by a user and holds a row lock on it
	// until the surrounding transaction ends
	LockForUpdate(ctx context.Context, userID, id uuid.UUID) (*Item, error)

	// FindByCategory finds all items of a category, with details
	FindByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]Item, error)

	// ExistsByBarcode checks if a user already has an item with the given barcode
	ExistsByBarcode(ctx context.Context, userID uuid.UUID, barcode string) (bool, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *Item) error

	// UpdatePrice persists a new selling price
	UpdatePrice(ctx context.Context, item *Item) error

	// Delete deletes an item
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// FindDetails finds the details of an item
	FindDetails(ctx context.Context, itemID uuid.UUID) (*ItemDetails, error)

	// SaveDetails creates or replaces the details of an item
	SaveDetails(ctx context.Context, details *ItemDetails) error

	// DeleteDetails deletes the details of an item
	DeleteDetails(ctx context.Context, itemID uuid.UUID) error
}
