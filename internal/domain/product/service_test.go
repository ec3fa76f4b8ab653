package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T) (*Service, []Product) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}))

	seed := []Product{
		{SKU: "TS-1", Name: "Linen Shirt", Slug: "linen-shirt-ts-1", Category: "Shirts", Price: 2500, Sizes: "S, M, L", IsActive: true},
		{SKU: "TS-2", Name: "Oxford Shirt", Slug: "oxford-shirt-ts-2", Category: "Shirts", Price: 4000, Sizes: "M", IsActive: true, IsFeatured: true},
		{SKU: "SH-1", Name: "Canvas Sneaker", Slug: "canvas-sneaker-sh-1", Category: "Shoes", Price: 6000, Description: "white canvas", IsActive: true},
		{SKU: "OLD-1", Name: "Retired Scarf", Slug: "retired-scarf-old-1", Category: "Scarves", Price: 900, IsActive: false},
	}
	require.NoError(t, db.Create(&seed).Error)
	return NewService(db, &config.Config{}), seed
}

func names(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestGetProducts(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	featured := true

	tests := []struct {
		name string
		req  ProductListRequest
		want []string
	}{
		{"active only, cheapest first", ProductListRequest{SortBy: "price", SortOrder: "asc"}, []string{"Linen Shirt", "Oxford Shirt", "Canvas Sneaker"}},
		{"category is case-insensitive", ProductListRequest{Category: "shirts", SortBy: "name", SortOrder: "asc"}, []string{"Linen Shirt", "Oxford Shirt"}},
		{"search matches description", ProductListRequest{Search: "CANVAS"}, []string{"Canvas Sneaker"}},
		{"price window", ProductListRequest{MinPrice: 3000, MaxPrice: 5000}, []string{"Oxford Shirt"}},
		{"featured", ProductListRequest{IsFeatured: &featured}, []string{"Oxford Shirt"}},
		{"unknown sort column falls back", ProductListRequest{SortBy: "sku; DROP TABLE products", SortOrder: "sideways", Category: "Shoes"}, []string{"Canvas Sneaker"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			resp, err := s.GetProducts(ctx, &req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(resp.Products))
			assert.Equal(t, int64(len(tt.want)), resp.Pagination.Total)
		})
	}
}

func TestGetProducts_Pagination(t *testing.T) {
	s, _ := newService(t)

	resp, err := s.GetProducts(context.Background(), &ProductListRequest{Page: 2, Limit: 2, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Canvas Sneaker"}, names(resp.Products))
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2, HasNext: false, HasPrev: true}, resp.Pagination)
}

func TestGetProduct(t *testing.T) {
	s, seed := newService(t)
	ctx := context.Background()

	p, err := s.GetProduct(ctx, seed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Linen Shirt", p.Name)

	bySlug, err := s.GetProductBySlug(ctx, "oxford-shirt-ts-2")
	require.NoError(t, err)
	assert.Equal(t, seed[1].ID, bySlug.ID)

	_, err = s.GetProduct(ctx, seed[3].ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, storeerr.ErrNotFound)

	_, err = s.GetProductBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetByIDsIncludesInactive(t *testing.T) {
	s, seed := newService(t)

	got, err := s.GetByIDs(context.Background(), []uint{seed[0].ID, seed[3].ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.False(t, got[seed[3].ID].IsActive)

	empty, err := s.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCreateProduct(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, &ProductCreateRequest{
		SKU: "HT/9", Name: "Wool Hat!", Category: " Hats ", Price: 1500, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "wool-hat-ht-9", p.Slug)
	assert.Equal(t, "Hats", p.Category)

	_, err = s.CreateProduct(ctx, &ProductCreateRequest{SKU: "HT/9", Name: "Another", Category: "Hats"})
	assert.Error(t, err)

	categories, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hats", "Shirts", "Shoes"}, categories)
}

func TestHasSize(t *testing.T) {
	sized := Product{Sizes: "S, M ,,L"}
	assert.Equal(t, []string{"S", "M", "L"}, sized.SizeList())
	assert.True(t, sized.HasSize("m"))
	assert.False(t, sized.HasSize(""))
	assert.False(t, sized.HasSize("XL"))

	oneSize := Product{}
	assert.True(t, oneSize.HasSize(""))
	assert.False(t, oneSize.HasSize("M"))

	canonical, ok := sized.CanonicalSize(" m ")
	assert.True(t, ok)
	assert.Equal(t, "M", canonical)
	_, ok = sized.CanonicalSize("XL")
	assert.False(t, ok)
}

func TestPatched(t *testing.T) {
	p := Product{Name: "Linen Shirt", Price: 2500, Quantity: 3}
	next := p.Patched(map[string]any{"price": int64(2000), "quantity": int64(7), "is_featured": true})

	assert.Equal(t, int64(2000), next.Price)
	assert.Equal(t, 7, next.Quantity)
	assert.True(t, next.IsFeatured)
	assert.Equal(t, int64(2500), p.Price)
}
