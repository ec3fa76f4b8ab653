// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/domain/user"
	"gorm.io/gorm"
)

// Service handles analytics business logic
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// DashboardStats is the admin dashboard summary
type DashboardStats struct {
	TotalOrders    int64         `json:"total_orders"`
	OrdersToday    int64         `json:"orders_today"`
	TotalRevenue   int64         `json:"total_revenue"` // In cents, cancelled orders excluded
	RevenueToday   int64         `json:"revenue_today"`
	AvgOrderValue  int64         `json:"avg_order_value"`
	TotalCustomers int64         `json:"total_customers"`
	UnreadMessages int64         `json:"unread_messages"`
	OrdersByStatus []StatusData  `json:"orders_by_status"`
	RecentOrders   []order.Order `json:"recent_orders"`
}

// StatusData counts orders in one status
type StatusData struct {
	Status order.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
	Value  int64             `json:"value"`
}

// GetDashboardStats retrieves overall dashboard statistics
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	revenue := db.Model(&order.Order{}).Where("status <> ?", order.OrderStatusCancelled)

	if err := db.Model(&order.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := db.Model(&order.Order{}).Where("created_at >= ?", today).Count(&stats.OrdersToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := revenue.Session(&gorm.Session{}).Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if err := revenue.Session(&gorm.Session{}).Where("created_at >= ?", today).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.RevenueToday).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	var paid int64
	if err := revenue.Session(&gorm.Session{}).Count(&paid).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if paid > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / paid
	}

	if err := db.Model(&user.User{}).Where("is_admin = ?", false).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := db.Model(&message.Message{}).Where("is_read = ?", false).Count(&stats.UnreadMessages).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	byStatus, err := s.ordersByStatus(db)
	if err != nil {
		return nil, err
	}
	stats.OrdersByStatus = byStatus

	if err := db.Order("created_at DESC, id DESC").Limit(5).Find(&stats.RecentOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent orders: %w", err)
	}
	return stats, nil
}

// ordersByStatus reports every known status, including empty ones, in lifecycle order
func (s *Service) ordersByStatus(db *gorm.DB) ([]StatusData, error) {
	var rows []StatusData
	err := db.Model(&order.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS value").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group orders: %w", err)
	}

	found := make(map[order.OrderStatus]StatusData, len(rows))
	for _, row := range rows {
		found[row.Status] = row
	}
	out := make([]StatusData, 0, len(order.Statuses))
	for _, st := range order.Statuses {
		row := found[st]
		row.Status = st
		out = append(out, row)
	}
	return out, nil
}
