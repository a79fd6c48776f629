package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormItemRepository_LockForUpdate(t *testing.T) {
	t.Run("selects the owned item with a row lock", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(mockDB.DB)

		itemID := uuid.New()
		userID := uuid.New()
		categoryID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "user_id", "category_id", "name", "barcode", "price", "created_at", "updated_at",
		}).AddRow(
			itemID.String(), userID.String(), categoryID.String(), "Cabbage", "955001", "3.5", baseTime, baseTime,
		)

		mockDB.Mock.ExpectQuery(`SELECT \* FROM "items" WHERE id = \$1 AND user_id = \$2 .*FOR UPDATE`).
			WithArgs(itemID, userID, 1).
			WillReturnRows(rows)

		item, err := repo.LockForUpdate(context.Background(), userID, itemID)
		require.NoError(t, err)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, categoryID, item.CategoryID)
		assertDecimal(t, "3.5", item.Price)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("maps a missing row to not found", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := NewGormItemRepository(mockDB.DB)

		mockDB.Mock.ExpectQuery(`SELECT \* FROM "items" WHERE id = \$1 AND user_id = \$2 .*FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.LockForUpdate(context.Background(), uuid.New(), uuid.New())
		assert.Nil(t, item)
		assert.Equal(t, shared.ErrNotFound, err)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestGormStockBatchRepository_FindAvailableForUpdate(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := NewGormStockBatchRepository(mockDB.DB)

	itemID := uuid.New()
	userID := uuid.New()
	b1 := uuid.New()
	b2 := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "item_id", "original_quantity", "remaining_quantity", "unit_price", "created_at", "updated_at",
	}).
		AddRow(b1.String(), userID.String(), itemID.String(), "10", "10", "2", baseTime, baseTime).
		AddRow(b2.String(), userID.String(), itemID.String(), "5", "5", "3", baseTime, baseTime)

	mockDB.Mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE item_id = \$1 AND user_id = \$2 AND remaining_quantity > 0 ORDER BY created_at ASC, id ASC FOR UPDATE`).
		WithArgs(itemID, userID).
		WillReturnRows(rows)

	batches, err := repo.FindAvailableForUpdate(context.Background(), userID, itemID)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, b1, batches[0].ID)
	assert.Equal(t, b2, batches[1].ID)
	assertDecimal(t, "10", batches[0].RemainingQuantity)
	mockDB.ExpectationsWereMet(t)
}

func TestGormStockBatchRepository_FindByItemOrdering(t *testing.T) {
	tests := []struct {
		name   string
		filter shared.Filter
		query  string
	}{
		{
			name:   "newest first by default",
			filter: shared.Filter{},
			query:  `SELECT \* FROM "stock_batches" WHERE item_id = \$1 AND user_id = \$2 ORDER BY created_at DESC,id DESC$`,
		},
		{
			name:   "unknown sort field falls back to created_at",
			filter: shared.Filter{OrderBy: "1; DROP TABLE stock_batches", OrderDir: "asc"},
			query:  `SELECT \* FROM "stock_batches" WHERE item_id = \$1 AND user_id = \$2 ORDER BY created_at ASC,id ASC$`,
		},
		{
			name:   "sort by id does not repeat the tie-break",
			filter: shared.Filter{OrderBy: "id", OrderDir: "desc"},
			query:  `SELECT \* FROM "stock_batches" WHERE item_id = \$1 AND user_id = \$2 ORDER BY id DESC$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()
			repo := NewGormStockBatchRepository(mockDB.DB)

			itemID := uuid.New()
			userID := uuid.New()
			mockDB.Mock.ExpectQuery(tt.query).
				WithArgs(itemID, userID).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			batches, err := repo.FindByItem(context.Background(), userID, itemID, tt.filter)
			require.NoError(t, err)
			assert.Empty(t, batches)
			mockDB.ExpectationsWereMet(t)
		})
	}
}
