package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/domain/order"
)

func TestRenderInvoiceHTML(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Company.Name = "Thread & Needle"
	cfg.App.Company.Email = "hello@example.com"
	cfg.App.BaseURL = "https://shop.example.com"

	s := NewService(cfg)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	o := &order.Order{
		OrderNumber:   "ORD-20240309-00012",
		Email:         "buyer@example.com",
		Status:        order.OrderStatusPending,
		PaymentMethod: order.PaymentMethodCashOnDelivery,
		ShippingAddress: order.Address{
			FullName:     "Ada Lovelace",
			AddressLine1: "12 Analytical Row",
			City:         "London",
			PostalCode:   "N1",
			Country:      "UK",
			Phone:        "0123",
		},
		SubtotalAmount: 4000,
		ShippingAmount: order.StandardShipping,
		TotalAmount:    4999,
		Items: []order.OrderItem{
			{Name: "Linen shirt", SKU: "LS-1", Size: "M", Quantity: 2, Price: 2000, TotalPrice: 4000},
		},
		CreatedAt: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
	}

	html, err := s.RenderInvoiceHTML(o)
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "INV-ORD-20240309-00012")
	assert.Contains(t, page, "March 9, 2024")
	assert.Contains(t, page, "Thread &amp; Needle")
	assert.Contains(t, page, "Cash on Delivery")
	assert.Contains(t, page, "49.99")
	assert.Contains(t, page, "Linen shirt")
	assert.Equal(t, "invoice-ORD-20240309-00012.pdf", InvoiceFilename(o))
}
