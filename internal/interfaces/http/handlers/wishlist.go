// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct{}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler() *WishlistHandler {
	return &WishlistHandler{}
}

// GetWishlist handles GET /wishlist. Anonymous visitors get an empty list.
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	view, err := middleware.GetSession(c).Wishlist.Load(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist retrieved successfully",
		"data":    view,
	})
}

// ToggleItem handles POST /wishlist/:productId/toggle
func (h *WishlistHandler) ToggleItem(c *gin.Context) {
	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	out := middleware.GetSession(c).Wishlist.Toggle(c.Request.Context(), productID)
	respondOutcome(c, out, "Wishlist updated successfully")
}

// CheckItem handles GET /wishlist/:productId. The set is loaded first when
// the identity changed since the last read.
func (h *WishlistHandler) CheckItem(c *gin.Context) {
	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	store := middleware.GetSession(c).Wishlist
	if !store.Snapshot().Loaded {
		if _, err := store.Load(c.Request.Context()); err != nil {
			respondError(c, err, "Failed to retrieve wishlist")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"product_id":  productID,
			"in_wishlist": store.Contains(productID),
		},
	})
}
