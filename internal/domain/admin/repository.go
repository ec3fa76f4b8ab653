package admin

import (
	"context"
	"fmt"

	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/retry"
	"gorm.io/gorm"
)

// Repository is the durable side of a table
type Repository[R any] interface {
	List(ctx context.Context) ([]R, error)
	// Update writes only the given columns and returns the stored row
	Update(ctx context.Context, id uint, changes map[string]any) (R, error)
	Delete(ctx context.Context, id uint) error
}

// RepositoryOption configures a GormRepository
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	order    string
	preloads []string
	retrier  *retry.Retrier
}

// OrderBy sets the listing order, "id DESC" by default
func OrderBy(order string) RepositoryOption {
	return func(o *repositoryOptions) { o.order = order }
}

// Preload loads associations with every row
func Preload(associations ...string) RepositoryOption {
	return func(o *repositoryOptions) { o.preloads = append(o.preloads, associations...) }
}

// WithRetrier retries reads and partial updates. Deletes are not retried.
func WithRetrier(r *retry.Retrier) RepositoryOption {
	return func(o *repositoryOptions) { o.retrier = r }
}

// GormRepository implements Repository for any gorm model
type GormRepository[R any] struct {
	db   *gorm.DB
	opts repositoryOptions
}

// NewGormRepository creates a repository for model R
func NewGormRepository[R any](db *gorm.DB, opts ...RepositoryOption) *GormRepository[R] {
	o := repositoryOptions{order: "id DESC"}
	for _, opt := range opts {
		opt(&o)
	}
	return &GormRepository[R]{db: db, opts: o}
}

func (r *GormRepository[R]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.opts.preloads {
		q = q.Preload(p)
	}
	return q
}

func (r *GormRepository[R]) do(ctx context.Context, op func(ctx context.Context) error) error {
	if r.opts.retrier == nil {
		return op(ctx)
	}
	return r.opts.retrier.Do(ctx, op)
}

// List implements Repository
func (r *GormRepository[R]) List(ctx context.Context) ([]R, error) {
	var rows []R
	err := r.do(ctx, func(ctx context.Context) error {
		rows = nil
		return r.query(ctx).Order(r.opts.order).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if rows == nil {
		rows = []R{}
	}
	return rows, nil
}

// Update implements Repository
func (r *GormRepository[R]) Update(ctx context.Context, id uint, changes map[string]any) (R, error) {
	var row R
	err := r.do(ctx, func(ctx context.Context) error {
		result := r.db.WithContext(ctx).Model(new(R)).Where("id = ?", id).Updates(changes)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storeerr.ErrNotFound
		}
		return r.query(ctx).First(&row, id).Error
	})
	if err != nil {
		return row, fmt.Errorf("failed to update record %d: %w", id, err)
	}
	return row, nil
}

// Delete implements Repository
func (r *GormRepository[R]) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(new(R), id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete record %d: %w", id, storeerr.ErrNotFound)
	}
	return nil
}
