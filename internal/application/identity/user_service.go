package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/identity"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrUserNotFound is returned when an account does not exist
var ErrUserNotFound = shared.NewNotFoundError("User not found")

// UserService handles account registration and lookup
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a new account
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*UserDTO, error) {
	user, err := identity.NewUser(input.Name, input.Email, identity.Plan(input.Plan))
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, shared.NewAlreadyExistsError("Email already registered")
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save user", zap.Error(err), zap.String("email", user.Email))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", string(user.Plan)))

	return ToUserDTO(user), nil
}

// GetProfile returns an account by ID
func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, shared.MissingParameters("user_id")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return ToUserDTO(user), nil
}

// Exists reports whether an account exists
func (s *UserService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.userRepo.ExistsByID(ctx, id)
}
