package analytics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func seed(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &order.Order{}, &order.OrderItem{}, &message.Message{}))

	require.NoError(t, db.Create(&[]user.User{
		{Email: "a@example.com", FirstName: "A"},
		{Email: "b@example.com", FirstName: "B"},
		{Email: "admin@example.com", FirstName: "Admin", IsAdmin: true},
	}).Error)

	orders := []order.Order{
		{OrderNumber: "ORD-1", UserID: 1, Status: order.OrderStatusPending, TotalAmount: 1000},
		{OrderNumber: "ORD-2", UserID: 1, Status: order.OrderStatusDelivered, TotalAmount: 3000},
		{OrderNumber: "ORD-3", UserID: 2, Status: order.OrderStatusCancelled, TotalAmount: 9000},
	}
	require.NoError(t, db.Create(&orders).Error)

	require.NoError(t, db.Create(&[]message.Message{
		{Name: "x", Email: "x@example.com", Subject: "s", Body: "b"},
		{Name: "y", Email: "y@example.com", Subject: "s", Body: "b", IsRead: true},
	}).Error)
	return db
}

func TestGetDashboardStats(t *testing.T) {
	svc := NewService(seed(t))

	stats, err := svc.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(4000), stats.TotalRevenue)
	assert.Equal(t, int64(2000), stats.AvgOrderValue)
	assert.Equal(t, int64(2), stats.TotalCustomers)
	assert.Equal(t, int64(1), stats.UnreadMessages)
	assert.Len(t, stats.RecentOrders, 3)

	require.Len(t, stats.OrdersByStatus, len(order.Statuses))
	byStatus := make(map[order.OrderStatus]StatusData)
	for _, row := range stats.OrdersByStatus {
		byStatus[row.Status] = row
	}
	assert.Equal(t, StatusData{Status: order.OrderStatusCancelled, Count: 1, Value: 9000}, byStatus[order.OrderStatusCancelled])
	assert.Equal(t, int64(0), byStatus[order.OrderStatusShipped].Count)
	assert.Equal(t, order.OrderStatusPending, stats.OrdersByStatus[0].Status)
}

func TestGetDashboardStats_Empty(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &order.Order{}, &order.OrderItem{}, &message.Message{}))

	stats, err := NewService(db).GetDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRevenue)
	assert.Zero(t, stats.AvgOrderValue)
	assert.Len(t, stats.OrdersByStatus, len(order.Statuses))
}
