package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/stockledger/backend/internal/application/identity"
)

// UserService is the account use cases used by UserHandler
type UserService interface {
	Register(ctx context.Context, input identityapp.RegisterUserInput) (*identityapp.UserDTO, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*identityapp.UserDTO, error)
}

// UserHandler handles account endpoints
type UserHandler struct {
	BaseHandler
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterUserRequest is the body of POST /users
type RegisterUserRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=200"`
	Plan  string `json:"plan" binding:"omitempty,oneof=stock stock_and_cost"`
}

// Register creates an account
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), identityapp.RegisterUserInput{
		Name:  req.Name,
		Email: req.Email,
		Plan:  req.Plan,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Get returns an account
func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
