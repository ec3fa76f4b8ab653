// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Statuses lists every status in lifecycle order
var Statuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// PaymentMethodCashOnDelivery is the only payment method; nothing is charged online
const PaymentMethodCashOnDelivery = "Cash on Delivery"

// Order represents the order entity
type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"uniqueIndex;size:50" json:"order_number"`
	UserID        uint        `gorm:"not null;index" json:"user_id"`
	Email         string      `gorm:"not null;size:255" json:"email"`
	Status        OrderStatus `gorm:"not null;default:'pending';index" json:"status"`
	PaymentMethod string      `gorm:"not null;size:50" json:"payment_method"`

	// Amounts in cents
	SubtotalAmount int64 `gorm:"not null" json:"subtotal_amount"`
	ShippingAmount int64 `gorm:"default:0" json:"shipping_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Notes           string  `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a priced line of an order. Name and price are copied from
// the catalog when the order is placed.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	SKU        string    `gorm:"not null;size:100" json:"sku"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	Size       string    `gorm:"size:50" json:"size"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Price      int64     `gorm:"not null" json:"price"`       // Price per unit in cents
	TotalPrice int64     `gorm:"not null" json:"total_price"` // Quantity * Price
	CreatedAt  time.Time `json:"created_at"`
}

// Address is the delivery address embedded in Order
type Address struct {
	FullName     string `gorm:"size:200" json:"full_name" binding:"required"`
	AddressLine1 string `gorm:"size:255" json:"address_line1" binding:"required"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city" binding:"required"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code" binding:"required"`
	Country      string `gorm:"size:100" json:"country" binding:"required"`
	Phone        string `gorm:"size:20" json:"phone" binding:"required"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// String renders the address on one line
func (a Address) String() string {
	parts := []string{a.FullName, a.AddressLine1, a.AddressLine2, a.City, a.State, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// GenerateOrderNumber formats ORD-YYYYMMDD-XXXXX from the creation date and id
func (o *Order) GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%05d", o.CreatedAt.Format("20060102"), o.ID)
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// ItemCount sums item quantities
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// RecordID identifies the row in the admin orders table
func (o Order) RecordID() uint {
	return o.ID
}

// Fields returns the columns an administrator may edit
func (o Order) Fields() map[string]any {
	return map[string]any{
		"status": string(o.Status),
		"notes":  o.Notes,
	}
}

// Patched returns a copy with changes applied
func (o Order) Patched(changes map[string]any) Order {
	for column, v := range changes {
		switch column {
		case "status":
			s, _ := v.(string)
			o.Status = OrderStatus(s)
		case "notes":
			o.Notes, _ = v.(string)
		}
	}
	return o
}

// FormatCents renders an amount in cents as a decimal string
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
