// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints. The cart lives in the storefront
// session; these handlers never touch durable storage directly.
type CartHandler struct {
	productService *product.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(productService *product.Service) *CartHandler {
	return &CartHandler{productService: productService}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateCartItemRequest represents a quantity change
type UpdateCartItemRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity" binding:"min=0,max=99"`
}

// CartLine is a cart line joined with catalog details
type CartLine struct {
	cart.LineItem
	Name      string `json:"name,omitempty"`
	Slug      string `json:"slug,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
	Available bool   `json:"available"`
}

// CartResponse is the cart as shown to the shopper
type CartResponse struct {
	Items         []CartLine          `json:"items"`
	TotalQuantity int                 `json:"total_quantity"`
	Subtotal      int64               `json:"subtotal"`
	State         cart.HydrationState `json:"state"`
	SyncError     string              `json:"sync_error,omitempty"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	h.respond(c, http.StatusOK, "Cart retrieved successfully", middleware.GetSession(c).Cart.Snapshot())
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}
	size, ok := p.CanonicalSize(req.Size)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid size",
			"details": p.SizeList(),
		})
		return
	}

	view, err := middleware.GetSession(c).Cart.Add(req.ProductID, size, req.Quantity)
	h.mutated(c, "Item added to cart successfully", view, err)
}

// UpdateCartItem handles PUT /cart/items/:productId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	store := middleware.GetSession(c).Cart
	line, found := findLine(store.Cart(), productID, req.Size)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	view, err := store.SetQuantity(productID, line.Size, req.Quantity)
	h.mutated(c, "Cart item updated successfully", view, err)
}

// RemoveFromCart handles DELETE /cart/items/:productId?size=
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	store := middleware.GetSession(c).Cart
	size := c.Query("size")
	if line, found := findLine(store.Cart(), productID, size); found {
		size = line.Size
	}

	view, err := store.Remove(productID, size)
	h.mutated(c, "Item removed from cart successfully", view, err)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	view, err := middleware.GetSession(c).Cart.Clear()
	h.mutated(c, "Cart cleared successfully", view, err)
}

// mutated answers a cart mutation. A cart that is still loading refuses
// changes so none can be lost when the stored cart arrives.
func (h *CartHandler) mutated(c *gin.Context, message string, view cart.View, err error) {
	if errors.Is(err, cart.ErrNotHydrated) || errors.Is(err, cart.ErrClosed) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Your cart is still loading, please try again",
			"data":  view,
		})
		return
	}
	h.respond(c, http.StatusOK, message, view)
}

// findLine matches the size case-insensitively; lines store the catalog's
// spelling of a size.
func findLine(ct cart.Cart, productID uint, size string) (cart.LineItem, bool) {
	size = strings.TrimSpace(size)
	for _, item := range ct.Items {
		if item.ProductID == productID && strings.EqualFold(item.Size, size) {
			return item, true
		}
	}
	return cart.LineItem{}, false
}

func (h *CartHandler) respond(c *gin.Context, status int, message string, view cart.View) {
	resp, err := h.enrich(c, view)
	if err != nil {
		respondError(c, err, "Failed to retrieve cart")
		return
	}
	c.JSON(status, gin.H{
		"message": message,
		"data":    resp,
	})
}

// enrich joins lines with the catalog. Lines whose product disappeared stay
// in the cart but are marked unavailable.
func (h *CartHandler) enrich(c *gin.Context, view cart.View) (*CartResponse, error) {
	products, err := h.productService.GetByIDs(c.Request.Context(), cart.Cart{Items: view.Items}.ProductIDs())
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{
		Items:         make([]CartLine, 0, len(view.Items)),
		TotalQuantity: view.TotalQuantity,
		State:         view.State,
		SyncError:     view.SyncError,
	}
	for _, item := range view.Items {
		line := CartLine{LineItem: item}
		if p, ok := products[item.ProductID]; ok && p.IsActive {
			line.Name = p.Name
			line.Slug = p.Slug
			line.ImageURL = p.ImageURL
			line.UnitPrice = p.Price
			line.Subtotal = p.Price * int64(item.Quantity)
			line.Available = true
			resp.Subtotal += line.Subtotal
		}
		resp.Items = append(resp.Items, line)
	}
	return resp, nil
}
