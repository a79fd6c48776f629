package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Category groups a user's items
type Category struct {
	shared.OwnedEntity
	Name  string
	Color string
}

// DefaultCategory is a category seeded for a new account
type DefaultCategory struct {
	Name  string
	Color string
}

// DefaultCategories are created the first time an account lists its categories
var DefaultCategories = []DefaultCategory{
	{Name: "Vegetables", Color: "green"},
	{Name: "Meats", Color: "violet"},
	{Name: "Seafoods", Color: "blue"},
}

// NewCategory creates a new category owned by a user
func NewCategory(userID uuid.UUID, name, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if userID == uuid.Nil || name == "" {
		return nil, shared.MissingFields("user_id", "name")
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	return &Category{
		OwnedEntity: shared.OwnedEntity{
			BaseEntity: shared.NewBaseEntity(),
			UserID:     userID,
		},
		Name:  name,
		Color: strings.TrimSpace(color),
	}, nil
}

func validateCategoryName(name string) error {
	if len(name) > 100 {
		return shared.NewValidationError("Category name cannot exceed 100 characters", "name")
	}
	return nil
}
