package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

// GormServiceRepository implements provider.ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByName finds a local service by exact name
func (r *GormServiceRepository) FindByName(ctx context.Context, name string) (*provider.Service, error) {
	var svc provider.Service
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}

// FindByProviderLink finds a local service by its embedded provider linkage
func (r *GormServiceRepository) FindByProviderLink(ctx context.Context, providerID uuid.UUID, providerServiceID string) (*provider.Service, error) {
	var svc provider.Service
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND provider_service_id = ?", providerID, providerServiceID).
		First(&svc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}

// Create persists a new local service
func (r *GormServiceRepository) Create(ctx context.Context, s *provider.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GormCategoryRepository implements provider.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByName finds a category by exact name
func (r *GormCategoryRepository) FindByName(ctx context.Context, name string) (*provider.Category, error) {
	var cat provider.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

// Create persists a new category
func (r *GormCategoryRepository) Create(ctx context.Context, c *provider.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GormServiceTypeRepository implements provider.ServiceTypeRepository using GORM
type GormServiceTypeRepository struct {
	db *gorm.DB
}

// NewGormServiceTypeRepository creates a new GormServiceTypeRepository
func NewGormServiceTypeRepository(db *gorm.DB) *GormServiceTypeRepository {
	return &GormServiceTypeRepository{db: db}
}

// FindAll returns the internal service-type taxonomy
func (r *GormServiceTypeRepository) FindAll(ctx context.Context) ([]provider.ServiceType, error) {
	var types []provider.ServiceType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
