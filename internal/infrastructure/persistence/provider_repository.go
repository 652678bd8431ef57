package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

// GormProviderRepository implements provider.Repository using GORM
type GormProviderRepository struct {
	db *gorm.DB
}

// NewGormProviderRepository creates a new GormProviderRepository
func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindByID finds a provider by its ID
func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	var p provider.Provider
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindActive returns all active providers
func (r *GormProviderRepository) FindActive(ctx context.Context) ([]provider.Provider, error) {
	var providers []provider.Provider
	if err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("name ASC").
		Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

// Save creates or updates a provider record
func (r *GormProviderRepository) Save(ctx context.Context, p *provider.Provider) error {
	return r.db.WithContext(ctx).Save(p).Error
}
