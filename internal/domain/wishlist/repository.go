package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/pkg/retry"
	"gorm.io/gorm"
)

// Repository is the durable wishlist store. Toggle flips one membership and
// returns the full canonical set after the flip.
type Repository interface {
	List(ctx context.Context, userID uint) ([]uint, error)
	Toggle(ctx context.Context, userID, productID uint) ([]uint, error)
}

// GormRepository stores memberships as wishlist_items rows
type GormRepository struct {
	db      *gorm.DB
	retrier *retry.Retrier
}

// NewGormRepository creates a relational wishlist store. Reads are retried
// under r when it is non-nil; toggles are not, since a toggle that committed
// before its response was lost would flip back on retry.
func NewGormRepository(db *gorm.DB, r *retry.Retrier) *GormRepository {
	return &GormRepository{db: db, retrier: r}
}

// List implements Repository
func (r *GormRepository) List(ctx context.Context, userID uint) ([]uint, error) {
	if r.retrier == nil {
		return listIDs(r.db.WithContext(ctx), userID)
	}
	return retry.Value(ctx, r.retrier, func(ctx context.Context) ([]uint, error) {
		return listIDs(r.db.WithContext(ctx), userID)
	})
}

// Toggle implements Repository. The flip and the re-read share one
// transaction so the returned set includes concurrent changes from other
// devices that committed first.
func (r *GormRepository) Toggle(ctx context.Context, userID, productID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing WishlistItem
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to remove wishlist item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			var count int64
			if err := tx.Model(&product.Product{}).
				Where("id = ? AND is_active = ?", productID, true).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check product: %w", err)
			}
			if count == 0 {
				return product.ErrProductNotFound
			}
			if err := tx.Create(&WishlistItem{UserID: userID, ProductID: productID}).Error; err != nil {
				return fmt.Errorf("failed to add wishlist item: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up wishlist item: %w", err)
		}

		ids, err = listIDs(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func listIDs(db *gorm.DB, userID uint) ([]uint, error) {
	ids := []uint{}
	err := db.Model(&WishlistItem{}).
		Where("user_id = ?", userID).
		Order("product_id ASC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return ids, nil
}
