package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity with a generated ID.
// IDs are UUIDv7, so they sort in creation order and break ties between
// entities created within the same clock tick.
func NewBaseEntity() BaseEntity {
	return NewBaseEntityAt(time.Now())
}

// NewBaseEntityAt creates a new base entity stamped with the given time
func NewBaseEntityAt(at time.Time) BaseEntity {
	return BaseEntity{
		ID:        NewID(),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// NewID returns a new time-ordered identifier
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// OwnedEntity is an entity scoped to a single user account
type OwnedEntity struct {
	BaseEntity
	UserID uuid.UUID
}

// IsOwnedBy reports whether the entity belongs to the given account
func (e *OwnedEntity) IsOwnedBy(userID uuid.UUID) bool {
	return e.UserID == userID
}
