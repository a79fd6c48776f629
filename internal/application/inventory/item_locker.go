package inventory

import (
	"context"

	"github.com/google/uuid"
)

// ItemLocker serializes stock movements of a single item across goroutines
// and, depending on the implementation, across server instances.
// Lock blocks until the lock is held or ctx is done; implementations report a
// lock that cannot be obtained in time as shared.ErrConcurrencyConflict.
type ItemLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// ItemLockKey returns the lock key of an item
func ItemLockKey(itemID uuid.UUID) string {
	return "stock:item:" + itemID.String()
}
