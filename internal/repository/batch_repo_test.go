package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestDecrementIfAvailable(t *testing.T) {
	t.Run("guard matches and returns the new quantity", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewBatchRepository(db)
		id := uuid.New()

		mock.ExpectQuery(`UPDATE "batches" SET .*quantity - .* WHERE .*quantity >= .* RETURNING "quantity"`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(7))

		newQty, err := repo.DecrementIfAvailable(context.Background(), nil, id, 3)

		require.NoError(t, err)
		assert.Equal(t, 7, newQty)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row matched means a concurrent writer won", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewBatchRepository(db)

		mock.ExpectQuery(`UPDATE "batches" SET`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

		_, err := repo.DecrementIfAvailable(context.Background(), nil, uuid.New(), 3)

		require.Error(t, err)
		assert.ErrorIs(t, err, apierror.ErrConcurrentModification)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure maps to persistence failure", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewBatchRepository(db)

		mock.ExpectQuery(`UPDATE "batches" SET`).WillReturnError(assert.AnError)

		_, err := repo.DecrementIfAvailable(context.Background(), nil, uuid.New(), 1)

		assert.ErrorIs(t, err, apierror.ErrPersistence)
		assert.NotErrorIs(t, err, apierror.ErrConcurrentModification)
	})
}

func TestIncrement_UnknownBatch(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(`UPDATE "batches" SET .*quantity \+ .*RETURNING "quantity"`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

	_, err := repo.Increment(context.Background(), nil, uuid.New(), 4)

	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "batches" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), nil, uuid.New())

	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestListSellable_FiltersAndOrders(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewBatchRepository(db)

	productID, branchID := uuid.New(), uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "product_id", "branch_id", "batch_number", "expiry_date", "quantity"}).
		AddRow(uuid.NewString(), productID.String(), branchID.String(), "B-1", now.AddDate(0, 1, 0), 5).
		AddRow(uuid.NewString(), productID.String(), branchID.String(), "B-2", now.AddDate(0, 6, 0), 10)

	mock.ExpectQuery(`SELECT \* FROM "batches" WHERE .*quantity > 0 AND expiry_date > .* ORDER BY expiry_date ASC,created_at ASC`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	batches, err := repo.ListSellable(context.Background(), nil, productID, branchID, now)

	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "B-1", batches[0].BatchNumber)
	assert.Equal(t, 10, batches[1].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
