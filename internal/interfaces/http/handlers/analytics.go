// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/analytics"
	"github.com/thesheunit/storefront/internal/domain/order"
)

// AnalyticsHandler handles the admin dashboard
type AnalyticsHandler struct {
	analyticsService *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetDashboard handles GET /admin/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.analyticsService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve dashboard statistics")
		return
	}

	// Currency values formatted for display
	formatted := gin.H{
		"total_revenue":   order.FormatCents(stats.TotalRevenue),
		"revenue_today":   order.FormatCents(stats.RevenueToday),
		"avg_order_value": order.FormatCents(stats.AvgOrderValue),
		"total_orders":    stats.TotalOrders,
		"orders_today":    stats.OrdersToday,
		"total_customers": stats.TotalCustomers,
		"unread_messages": stats.UnreadMessages,
		"raw":             stats,
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard statistics retrieved successfully",
		"data":    formatted,
	})
}
