package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/stockledger/backend/internal/application/catalog"
)

// CategoryService is the category use cases used by CategoryHandler
type CategoryService interface {
	List(ctx context.Context, userID uuid.UUID) ([]catalogapp.CategoryResponse, error)
	Create(ctx context.Context, req catalogapp.CreateCategoryRequest) (*catalogapp.CategoryResponse, error)
}

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	BaseHandler
	categories CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// CreateCategoryRequest is the body of POST /categories
type CreateCategoryRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name" binding:"max=100"`
	Color  string `json:"color" binding:"max=30"`
}

// List returns the user's categories, seeding the defaults for a new account
func (h *CategoryHandler) List(c *gin.Context) {
	userID, err := parseUUID(c.Query("user_id"), "user_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	categories, err := h.categories.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Create adds a category
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	category, err := h.categories.Create(c.Request.Context(), catalogapp.CreateCategoryRequest{
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}
