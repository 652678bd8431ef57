package provider

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides access to stored provider records
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	FindActive(ctx context.Context) ([]Provider, error)
	Save(ctx context.Context, p *Provider) error
}

// ServiceRepository provides access to the persisted local catalog
type ServiceRepository interface {
	FindByName(ctx context.Context, name string) (*Service, error)
	FindByProviderLink(ctx context.Context, providerID uuid.UUID, providerServiceID string) (*Service, error)
	Create(ctx context.Context, s *Service) error
}

// CategoryRepository provides access to persisted local categories
type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, c *Category) error
}

// ServiceTypeRepository provides access to the internal service-type taxonomy
type ServiceTypeRepository interface {
	FindAll(ctx context.Context) ([]ServiceType, error)
}

// OrderRepository provides access to local orders for reconciliation
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindActive returns all orders not in a terminal status.
	FindActive(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
}
