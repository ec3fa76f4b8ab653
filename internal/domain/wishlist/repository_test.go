package wishlist

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepository(t *testing.T) (*GormRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&product.Product{}, &WishlistItem{}))

	for i, active := range []bool{true, true, false} {
		require.NoError(t, db.Create(&product.Product{
			SKU:      fmt.Sprintf("SKU-%d", i+1),
			Name:     fmt.Sprintf("Product %d", i+1),
			Slug:     fmt.Sprintf("product-%d", i+1),
			Price:    1000,
			IsActive: active,
		}).Error)
	}
	return NewGormRepository(db, nil), db
}

func TestGormRepository_Toggle(t *testing.T) {
	repo, _ := newSQLiteRepository(t)
	ctx := context.Background()

	ids, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repo.Toggle(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids)

	ids, err = repo.Toggle(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids)

	ids, err = repo.Toggle(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)

	ids, err = repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, ids, "other users are unaffected")
}

func TestGormRepository_ToggleReturnsConcurrentChanges(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	ctx := context.Background()

	// written by another device
	require.NoError(t, db.Create(&WishlistItem{UserID: 1, ProductID: 1}).Error)

	ids, err := repo.Toggle(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids)
}

func TestGormRepository_ToggleUnknownProduct(t *testing.T) {
	repo, _ := newSQLiteRepository(t)
	ctx := context.Background()

	for _, id := range []uint{3, 99} {
		_, err := repo.Toggle(ctx, 1, id)
		assert.ErrorIs(t, err, product.ErrProductNotFound)
		assert.Equal(t, storeerr.CategoryNotFound, storeerr.Classify(err))
	}

	ids, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGormRepository_ToggleConnectionFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin().WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})

	_, err = NewGormRepository(db, nil).Toggle(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, storeerr.CategoryNetwork, storeerr.Classify(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
