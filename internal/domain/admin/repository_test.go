package admin

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/logger"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newProductDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&product.Product{}))

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Create(&product.Product{
			SKU:      fmt.Sprintf("SKU-%d", i),
			Name:     fmt.Sprintf("Product %d", i),
			Slug:     fmt.Sprintf("product-%d", i),
			Price:    int64(i * 1000),
			Quantity: 5,
			IsActive: true,
		}).Error)
	}
	return db
}

func TestGormRepository_ListUpdateDelete(t *testing.T) {
	db := newProductDB(t)
	repo := NewGormRepository[product.Product](db, OrderBy("id ASC"))
	ctx := context.Background()

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint(1), rows[0].ID)

	// another admin changes the name meanwhile; a price-only update must keep it
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", 2).Update("name", "Renamed").Error)

	row, err := repo.Update(ctx, 2, map[string]any{"price": int64(2500)})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), row.Price)
	assert.Equal(t, "Renamed", row.Name)

	row, err = repo.Update(ctx, 3, map[string]any{"is_active": false})
	require.NoError(t, err)
	assert.False(t, row.IsActive)

	_, err = repo.Update(ctx, 42, map[string]any{"price": int64(1)})
	assert.ErrorIs(t, err, storeerr.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, 1))
	assert.ErrorIs(t, repo.Delete(ctx, 1), storeerr.ErrNotFound)

	rows, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestTable_WithGormRepository(t *testing.T) {
	db := newProductDB(t)
	schema := NewSchema(
		Field{Column: "price", Type: Int, Rules: "gte=0"},
		Field{Column: "is_active", Type: Bool},
	)
	table := NewTable[product.Product]("products", schema, NewGormRepository[product.Product](db), logger.Discard())
	ctx := context.Background()

	rows, err := table.Mount(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint(3), rows[0].ID, "newest first by default")

	out := table.Toggle(ctx, 1, "is_active")
	require.True(t, out.OK())
	assert.False(t, out.Value.IsActive)

	var stored product.Product
	require.NoError(t, db.First(&stored, 1).Error)
	assert.False(t, stored.IsActive)
}

func TestTable_UpdateFailureFromDatabase(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_active"}).
			AddRow(7, "Coat", 9000, true))
	mock.ExpectExec(`UPDATE "products" SET`).
		WillReturnError(fmt.Errorf("write tcp: %w", context.DeadlineExceeded))

	schema := NewSchema(Field{Column: "price", Type: Int, Rules: "gte=0"})
	table := NewTable[product.Product]("products", schema, NewGormRepository[product.Product](db), logger.Discard(),
		optimistic.WithClassifier(storeerr.MutationKind))

	_, err = table.Mount(context.Background())
	require.NoError(t, err)

	out := table.Update(context.Background(), 7, map[string]any{"price": float64(9900)})
	assert.Equal(t, optimistic.StatusRolledBack, out.Status)
	assert.Equal(t, optimistic.KindNetworkFailure, out.Kind())
	assert.Equal(t, int64(9000), out.Value.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}
