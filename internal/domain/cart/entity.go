// internal/domain/cart/entity.go
package cart

import (
	"strings"
	"time"
)

// LineItem is one (product, size) entry of a cart. Quantity is always at least 1.
type LineItem struct {
	ProductID uint   `json:"product_id" firestore:"product_id"`
	Size      string `json:"size" firestore:"size"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
}

// Cart is an ordered list of line items with at most one item per
// (product, size). Methods never modify the receiver.
type Cart struct {
	Items []LineItem `json:"items"`
}

func sameLine(item LineItem, productID uint, size string) bool {
	return item.ProductID == productID && item.Size == size
}

func normalizeSize(size string) string {
	return strings.TrimSpace(size)
}

// Clone returns a deep copy
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// Add merges qty into the (product, size) line, appending a new line when
// none exists. Non-positive quantities leave the cart unchanged.
func (c Cart) Add(productID uint, size string, qty int) Cart {
	if productID == 0 || qty <= 0 {
		return c.Clone()
	}
	size = normalizeSize(size)
	next := c.Clone()
	for i := range next.Items {
		if sameLine(next.Items[i], productID, size) {
			next.Items[i].Quantity += qty
			return next
		}
	}
	next.Items = append(next.Items, LineItem{ProductID: productID, Size: size, Quantity: qty})
	return next
}

// SetQuantity sets the quantity of a line exactly; qty <= 0 removes it
func (c Cart) SetQuantity(productID uint, size string, qty int) Cart {
	if qty <= 0 {
		return c.Remove(productID, size)
	}
	size = normalizeSize(size)
	next := c.Clone()
	for i := range next.Items {
		if sameLine(next.Items[i], productID, size) {
			next.Items[i].Quantity = qty
			return next
		}
	}
	return next
}

// Remove drops the (product, size) line
func (c Cart) Remove(productID uint, size string) Cart {
	size = normalizeSize(size)
	next := Cart{Items: make([]LineItem, 0, len(c.Items))}
	for _, item := range c.Items {
		if !sameLine(item, productID, size) {
			next.Items = append(next.Items, item)
		}
	}
	return next
}

// Find returns the (product, size) line
func (c Cart) Find(productID uint, size string) (LineItem, bool) {
	size = normalizeSize(size)
	for _, item := range c.Items {
		if sameLine(item, productID, size) {
			return item, true
		}
	}
	return LineItem{}, false
}

// TotalQuantity sums all line quantities
func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs returns the distinct products in cart order
func (c Cart) ProductIDs() []uint {
	seen := make(map[uint]bool, len(c.Items))
	ids := make([]uint, 0, len(c.Items))
	for _, item := range c.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// CartItem is the row shape of the relational cart store
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_line" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_line" json:"product_id"`
	Size      string    `gorm:"size:50;not null;default:'';uniqueIndex:idx_cart_items_line" json:"size"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}
