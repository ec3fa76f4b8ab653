package order

import (
	"context"

	"github.com/thesheunit/storefront/internal/domain/admin"
	"gorm.io/gorm"
)

// AdminRepository backs the admin orders table. Customers are emailed when
// an administrator moves an order to another status.
type AdminRepository struct {
	*admin.GormRepository[Order]
	service *Service
}

// NewAdminRepository creates the orders table repository
func NewAdminRepository(db *gorm.DB, service *Service, opts ...admin.RepositoryOption) *AdminRepository {
	opts = append([]admin.RepositoryOption{admin.Preload("Items"), admin.OrderBy("created_at DESC, id DESC")}, opts...)
	return &AdminRepository{
		GormRepository: admin.NewGormRepository[Order](db, opts...),
		service:        service,
	}
}

// Update implements admin.Repository
func (r *AdminRepository) Update(ctx context.Context, id uint, changes map[string]any) (Order, error) {
	row, err := r.GormRepository.Update(ctx, id, changes)
	if err != nil {
		return row, err
	}
	if _, ok := changes["status"]; ok && r.service != nil {
		r.service.NotifyStatus(ctx, &row)
	}
	return row, nil
}
