package provider

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

// CanonicalService is the normalized representation of one upstream catalog
// entry. It is produced fresh on every fetch and never mutated in place.
type CanonicalService struct {
	ServiceID   string          `json:"service"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Rate        decimal.Decimal `json:"rate"`
	Min         int             `json:"min"`
	Max         int             `json:"max"`
	Type        string          `json:"type"`
	Refill      bool            `json:"refill"`
	Cancel      bool            `json:"cancel"`
	Description string          `json:"description"`
}

// CategorySummary is a derived view of one provider category: its label and
// how many services the provider lists under it
type CategorySummary struct {
	Name         string `json:"name"`
	ServiceCount int    `json:"serviceCount"`
}

// ServiceType is one entry of the internal service-type taxonomy
type ServiceType struct {
	shared.BaseEntity
	Name string `gorm:"type:varchar(100);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (ServiceType) TableName() string {
	return "service_types"
}

// DefaultServiceTypeName is the taxonomy entry unresolvable upstream labels
// fall back to
const DefaultServiceTypeName = "Default"

// Category is a persisted local catalog category
type Category struct {
	shared.BaseEntity
	Name string `gorm:"type:varchar(200);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a local category
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidInput
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// Service is a persisted local catalog entry resold from a provider.
// The (ProviderID, ProviderServiceID) pair is unique: the import pipeline
// must never create two local services sharing the same linkage.
type Service struct {
	shared.BaseEntity
	Name              string          `gorm:"type:varchar(300);not null"`
	CategoryID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	TypeID            uuid.UUID       `gorm:"type:uuid;not null"`
	Rate              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Min               int             `gorm:"not null;default:1"`
	Max               int             `gorm:"not null;default:10000"`
	Refill            bool            `gorm:"not null;default:false"`
	Cancel            bool            `gorm:"not null;default:false"`
	Description       string          `gorm:"type:text"`
	ProviderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_service_provider_link,priority:1"`
	ProviderServiceID string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_service_provider_link,priority:2"`
	// ProviderRate keeps the provider's original base-currency price for
	// future reconciliation against upstream price changes.
	ProviderRate decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (Service) TableName() string {
	return "services"
}

// MarginPercent applies a profit margin to a base-currency rate and rounds
// to two decimals: rate * (1 + margin/100).
func MarginPercent(baseRate decimal.Decimal, margin decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	factor := hundred.Add(margin).Div(hundred)
	return baseRate.Mul(factor).Round(2)
}
