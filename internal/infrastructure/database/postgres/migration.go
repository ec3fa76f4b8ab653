// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/domain/wishlist"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{db: db, logger: logger}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&wishlist.WishlistItem{},
		&message.Message{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations(ctx context.Context) error {
	db := m.db.WithContext(ctx)
	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}
	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates indexes gorm tags cannot express. Failures are
// logged and skipped.
func (m *Migration) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(is_read, created_at DESC)",
	}

	failed := 0
	for _, stmt := range indexes {
		if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failed++
		}
	}
	m.logger.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes ensured")
	return nil
}

// SeedOptions controls development seeding
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	BcryptCost    int
}

// SeedInitialData inserts an administrator and a small catalog when missing
func (m *Migration) SeedInitialData(ctx context.Context, opts SeedOptions) error {
	if err := m.seedAdminUser(ctx, opts); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedProducts(ctx); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	m.logger.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedAdminUser(ctx context.Context, opts SeedOptions) error {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}
	db := m.db.WithContext(ctx)
	addr := user.NormalizeEmail(opts.AdminEmail)

	var existing user.User
	err := db.Where("email = ?", addr).First(&existing).Error
	if err == nil {
		m.logger.WithField("user_id", existing.ID).Debug("Admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := user.User{
		Email:     addr,
		Password:  string(hashed),
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	m.logger.WithField("email", addr).Info("Created admin user")
	return nil
}

func (m *Migration) seedProducts(ctx context.Context) error {
	db := m.db.WithContext(ctx)

	var count int64
	if err := db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []product.Product{
		{
			SKU:         "TEE-001",
			Name:        "Organic Cotton Tee",
			Description: "Heavyweight organic cotton t-shirt with a relaxed fit.",
			Category:    "Clothing",
			Price:       2500,
			Sizes:       "S,M,L,XL",
			Quantity:    40,
			IsActive:    true,
			IsFeatured:  true,
		},
		{
			SKU:         "HOOD-001",
			Name:        "Fleece Hoodie",
			Description: "Brushed fleece hoodie with kangaroo pocket.",
			Category:    "Clothing",
			Price:       5900,
			Sizes:       "S,M,L",
			Quantity:    20,
			IsActive:    true,
		},
		{
			SKU:         "TOTE-001",
			Name:        "Canvas Tote",
			Description: "Sturdy canvas tote bag.",
			Category:    "Accessories",
			Price:       1800,
			Quantity:    60,
			IsActive:    true,
			IsFeatured:  true,
		},
	}
	for i := range products {
		products[i].Slug = product.GenerateSlug(products[i].Name, products[i].SKU)
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}
	m.logger.WithField("count", len(products)).Info("Seeded products")
	return nil
}

// DropAllTables drops every table in reverse dependency order
func (m *Migration) DropAllTables(ctx context.Context) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.WithContext(ctx).Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop %T: %w", models[i], err)
		}
	}
	m.logger.Warn("All tables dropped")
	return nil
}
