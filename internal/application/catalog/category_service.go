package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrCategoryNotFound is returned when a category is absent or owned by another account
var ErrCategoryNotFound = shared.NewNotFoundError("Category not found")

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// List returns a user's categories sorted by name.
// An account without categories is seeded with the default set first.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]CategoryResponse, error) {
	if userID == uuid.Nil {
		return nil, shared.MissingParameters("user_id")
	}

	count, err := s.categoryRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	if count == 0 {
		if err := s.seedDefaults(ctx, userID); err != nil {
			return nil, err
		}
	}

	categories, err := s.categoryRepo.FindAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}
	return responses, nil
}

func (s *CategoryService) seedDefaults(ctx context.Context, userID uuid.UUID) error {
	defaults := make([]*catalog.Category, 0, len(catalog.DefaultCategories))
	for _, d := range catalog.DefaultCategories {
		c, err := catalog.NewCategory(userID, d.Name, d.Color)
		if err != nil {
			return err
		}
		defaults = append(defaults, c)
	}
	if err := s.categoryRepo.SaveBatch(ctx, defaults); err != nil {
		s.logger.Error("Failed to seed default categories", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("failed to seed default categories: %w", err)
	}
	s.logger.Info("Seeded default categories", zap.String("user_id", userID.String()))
	return nil
}

// Create creates a new category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(req.UserID, req.Name, req.Color)
	if err != nil {
		return nil, err
	}

	exists, err := s.categoryRepo.ExistsByName(ctx, req.UserID, category.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return nil, shared.NewAlreadyExistsError("Category with this name already exists")
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		s.logger.Error("Failed to save category", zap.Error(err), zap.String("user_id", req.UserID.String()))
		return nil, fmt.Errorf("failed to save category: %w", err)
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetByID returns a category owned by the user
func (s *CategoryService) GetByID(ctx context.Context, userID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}
