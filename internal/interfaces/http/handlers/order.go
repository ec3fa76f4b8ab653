// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder handles POST /orders. The session cart is the source of the
// order lines and is cleared once the order is stored.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req order.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess := middleware.GetSession(c)
	who, _ := middleware.GetIdentity(c)

	if sess.Cart.State() != cart.StateHydrated {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Your cart is still loading, please try again",
		})
		return
	}

	buyer := order.Buyer{
		UserID: who.UserID,
		Email:  who.Email,
		Name:   req.ShippingAddress.FullName,
	}
	placed, err := h.orderService.PlaceOrder(c.Request.Context(), buyer, sess.Cart.Cart().Items, &req)
	if err != nil {
		var unavailable *order.UnavailableError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.As(err, &unavailable):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Some items cannot be ordered",
				"details": unavailable.Reasons,
			})
		default:
			respondError(c, err, "Failed to place order")
		}
		return
	}

	if _, err := sess.Cart.Clear(); err != nil {
		// the order stands; the request log carries the error
		_ = c.Error(err)
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    placed,
	})
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	response, err := h.orderService.ListForUser(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	o, err := h.orderService.GetForUser(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}
