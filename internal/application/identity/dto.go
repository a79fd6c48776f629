package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/identity"
)

// RegisterUserInput contains input for registering an account
type RegisterUserInput struct {
	Name  string
	Email string
	Plan  string // Optional, defaults to stock
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a domain user to a DTO
func ToUserDTO(u *identity.User) *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Plan:      string(u.Plan),
		CreatedAt: u.CreatedAt,
	}
}
