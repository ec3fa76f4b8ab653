package order

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/email"
	"github.com/thesheunit/storefront/internal/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingSender struct {
	sent []*email.Email
}

func (r *recordingSender) Send(_ context.Context, e *email.Email) error {
	r.sent = append(r.sent, e)
	return nil
}

type fixture struct {
	db      *gorm.DB
	service *Service
	mail    *recordingSender
	shirt   product.Product
	scarf   product.Product
	retired product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&product.Product{}, &Order{}, &OrderItem{}))

	cfg := &config.Config{}
	cfg.App.Name = "Storefront"
	cfg.App.BaseURL = "https://shop.example.com"

	f := &fixture{db: db, mail: &recordingSender{}}
	f.shirt = product.Product{SKU: "LS-1", Name: "Linen shirt", Slug: "linen-shirt", Price: 2500, Sizes: "S,M,L", Quantity: 5, IsActive: true}
	f.scarf = product.Product{SKU: "SC-1", Name: "Silk scarf", Slug: "silk-scarf", Price: 1200, Quantity: 1, IsActive: true}
	f.retired = product.Product{SKU: "OLD-1", Name: "Old hat", Slug: "old-hat", Price: 900, Quantity: 10, IsActive: false}
	for _, p := range []*product.Product{&f.shirt, &f.scarf, &f.retired} {
		require.NoError(t, db.Create(p).Error)
	}

	f.service = NewService(db, cfg, email.NewEmailServiceWithSender(cfg, f.mail), logger.Discard())
	return f
}

func address() *PlaceOrderRequest {
	return &PlaceOrderRequest{ShippingAddress: Address{
		FullName:     "Ada Lovelace",
		AddressLine1: "12 Analytical Row",
		City:         "London",
		PostalCode:   "N1",
		Country:      "UK",
		Phone:        "0123",
	}}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := Buyer{UserID: 7, Email: "ada@example.com", Name: "Ada"}

	o, err := f.service.PlaceOrder(ctx, buyer, []cart.LineItem{
		{ProductID: f.shirt.ID, Size: "M", Quantity: 2},
		{ProductID: f.scarf.ID, Size: "", Quantity: 1},
	}, address())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{5}$`), o.OrderNumber)
	assert.Equal(t, PaymentMethodCashOnDelivery, o.PaymentMethod)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, int64(6200), o.SubtotalAmount)
	assert.Equal(t, int64(6200)+StandardShipping, o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Linen shirt", o.Items[0].Name)
	assert.Equal(t, int64(5000), o.Items[0].TotalPrice)

	var shirt product.Product
	require.NoError(t, f.db.First(&shirt, f.shirt.ID).Error)
	assert.Equal(t, 3, shirt.Quantity, "stock is reserved")

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Subject, o.OrderNumber)
}

func TestPlaceOrder_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := Buyer{UserID: 7, Email: "ada@example.com"}

	_, err := f.service.PlaceOrder(ctx, buyer, nil, address())
	assert.ErrorIs(t, err, ErrEmptyCart)

	tests := []struct {
		name   string
		items  []cart.LineItem
		reason string
	}{
		{"inactive product", []cart.LineItem{{ProductID: f.retired.ID, Quantity: 1}}, "no longer available"},
		{"unknown product", []cart.LineItem{{ProductID: 999, Quantity: 1}}, "no longer available"},
		{"unknown size", []cart.LineItem{{ProductID: f.shirt.ID, Size: "XXL", Quantity: 1}}, "not available in size"},
		{"size on one-size product", []cart.LineItem{{ProductID: f.scarf.ID, Size: "M", Quantity: 1}}, "not available in size"},
		{"stock across sizes", []cart.LineItem{
			{ProductID: f.shirt.ID, Size: "S", Quantity: 3},
			{ProductID: f.shirt.ID, Size: "L", Quantity: 3},
		}, "insufficient stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.PlaceOrder(ctx, buyer, tt.items, address())
			var unavailable *UnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Contains(t, unavailable.Error(), tt.reason)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count, "rejected orders leave nothing behind")
	assert.Empty(t, f.mail.sent)
}

func TestListAndGetForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.service.PlaceOrder(ctx, Buyer{UserID: 1, Email: "a@example.com"},
		[]cart.LineItem{{ProductID: f.shirt.ID, Size: "S", Quantity: 1}}, address())
	require.NoError(t, err)
	theirs, err := f.service.PlaceOrder(ctx, Buyer{UserID: 2, Email: "b@example.com"},
		[]cart.LineItem{{ProductID: f.shirt.ID, Size: "L", Quantity: 1}}, address())
	require.NoError(t, err)

	resp, err := f.service.ListForUser(ctx, 1, &OrderListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, mine.ID, resp.Orders[0].ID)
	assert.Len(t, resp.Orders[0].Items, 1)
	assert.Equal(t, int64(1), resp.Pagination.Total)

	got, err := f.service.GetForUser(ctx, 1, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.OrderNumber, got.OrderNumber)

	_, err = f.service.GetForUser(ctx, 1, theirs.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, storeerr.CategoryNotFound, storeerr.Classify(err))
}

func TestAdminRepository_NotifiesOnStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.service.PlaceOrder(ctx, Buyer{UserID: 1, Email: "a@example.com"},
		[]cart.LineItem{{ProductID: f.scarf.ID, Quantity: 1}}, address())
	require.NoError(t, err)
	f.mail.sent = nil

	repo := NewAdminRepository(f.db, f.service)
	row, err := repo.Update(ctx, o.ID, map[string]any{"status": "shipped"})
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, row.Status)
	assert.Len(t, row.Items, 1)
	require.Len(t, f.mail.sent, 1)
	assert.Contains(t, f.mail.sent[0].Subject, "shipped")

	_, err = repo.Update(ctx, o.ID, map[string]any{"notes": "left at door"})
	require.NoError(t, err)
	assert.Len(t, f.mail.sent, 1, "only status changes are emailed")
}

func TestOrderRecord(t *testing.T) {
	o := Order{ID: 3, Status: OrderStatusPending, Notes: "n"}
	assert.Equal(t, map[string]any{"status": "pending", "notes": "n"}, o.Fields())

	patched := o.Patched(map[string]any{"status": "delivered"})
	assert.Equal(t, OrderStatusDelivered, patched.Status)
	assert.Equal(t, OrderStatusPending, o.Status)

	assert.Equal(t, "12.05", FormatCents(1205))
	assert.Equal(t, "-0.50", FormatCents(-50))
}
