package identity

import (
	"regexp"
	"strings"

	"github.com/stockledger/backend/internal/domain/shared"
)

// Plan is the subscription plan of an account
type Plan string

const (
	PlanStock        Plan = "stock"          // Quantities only
	PlanStockAndCost Plan = "stock_and_cost" // Quantities and FIFO costing
)

// IsValid checks if the plan is valid
func (p Plan) IsValid() bool {
	return p == PlanStock || p == PlanStockAndCost
}

// User is the account that owns categories, items and stock
type User struct {
	shared.BaseEntity
	Name  string
	Email string
	Plan  Plan
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NewUser creates a new account. An empty plan defaults to PlanStock.
func NewUser(name, email string, plan Plan) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, shared.MissingFields(missing...)
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("Name cannot exceed 100 characters", "name")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	if plan == "" {
		plan = PlanStock
	}
	if !plan.IsValid() {
		return nil, shared.NewValidationError("Plan must be one of stock, stock_and_cost", "plan")
	}

	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      email,
		Plan:       plan,
	}, nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError("Email cannot exceed 200 characters", "email")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("Invalid email format", "email")
	}
	return nil
}
