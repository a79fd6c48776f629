package inventory

import (
	"context"

	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock repositories.
// Every repository handed to fn shares one database transaction, which is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to the current transaction
type TransactionalRepositories interface {
	// Items returns the item repository; LockForUpdate holds the item row until commit
	Items() catalog.ItemRepository
	// Batches returns the stock batch repository
	Batches() inventory.StockBatchRepository
	// Consumption returns the consumption record repository
	Consumption() inventory.ConsumptionRecordRepository
}
