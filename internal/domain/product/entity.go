// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SKU         string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:100;index" json:"category"`
	Price       int64          `gorm:"not null" json:"price"` // Price in cents
	Sizes       string         `gorm:"size:255" json:"sizes"` // Comma-separated, empty for one-size items
	Quantity    int            `gorm:"default:0" json:"quantity"`
	ImageURL    string         `gorm:"size:500" json:"image_url"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"`
	IsFeatured  bool           `gorm:"default:false" json:"is_featured"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for Product
func (Product) TableName() string { return "products" }

// SizeList returns the configured sizes
func (p *Product) SizeList() []string {
	if strings.TrimSpace(p.Sizes) == "" {
		return nil
	}
	parts := strings.Split(p.Sizes, ",")
	sizes := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// HasSize reports whether size can be ordered. One-size products accept only "".
func (p *Product) HasSize(size string) bool {
	_, ok := p.CanonicalSize(size)
	return ok
}

// CanonicalSize returns the catalog's spelling of size, matched
// case-insensitively
func (p *Product) CanonicalSize(size string) (string, bool) {
	size = strings.TrimSpace(size)
	sizes := p.SizeList()
	if len(sizes) == 0 {
		return "", size == ""
	}
	for _, s := range sizes {
		if strings.EqualFold(s, size) {
			return s, true
		}
	}
	return "", false
}

// RecordID identifies the row in the admin products table
func (p Product) RecordID() uint {
	return p.ID
}

// Fields returns the columns an administrator may edit
func (p Product) Fields() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"price":       p.Price,
		"quantity":    int64(p.Quantity),
		"is_active":   p.IsActive,
		"is_featured": p.IsFeatured,
	}
}

// Patched returns a copy with changes applied
func (p Product) Patched(changes map[string]any) Product {
	for column, v := range changes {
		switch column {
		case "name":
			p.Name, _ = v.(string)
		case "description":
			p.Description, _ = v.(string)
		case "category":
			p.Category, _ = v.(string)
		case "price":
			p.Price, _ = v.(int64)
		case "quantity":
			q, _ := v.(int64)
			p.Quantity = int(q)
		case "is_active":
			p.IsActive, _ = v.(bool)
		case "is_featured":
			p.IsFeatured, _ = v.(bool)
		}
	}
	return p
}
