package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

// GormOrderRepository implements provider.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*provider.Order, error) {
	var order provider.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindActive returns all orders not in a terminal status
func (r *GormOrderRepository) FindActive(ctx context.Context) ([]provider.Order, error) {
	var orders []provider.Order
	if err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []provider.OrderStatus{
			provider.OrderStatusCompleted,
			provider.OrderStatusCancelled,
			provider.OrderStatusRefunded,
		}).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Update persists the reconciled fields of an order. Last write wins on
// the reconciled columns; no transactional locking is assumed here.
func (r *GormOrderRepository) Update(ctx context.Context, o *provider.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}
