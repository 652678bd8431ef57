package provider

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

// Default parameter names used by the majority of SMM provider APIs.
// Individual providers may override both via their stored record.
const (
	DefaultKeyParam    = "key"
	DefaultActionParam = "action"
)

// HTTPMethod is a provider's declared verb preference for API calls
type HTTPMethod string

const (
	HTTPMethodPost HTTPMethod = "POST"
	HTTPMethodGet  HTTPMethod = "GET"
)

// Alternate returns the opposite verb, used by the request-shape fallback
func (m HTTPMethod) Alternate() HTTPMethod {
	if m == HTTPMethodGet {
		return HTTPMethodPost
	}
	return HTTPMethodGet
}

// StringMap is a string-to-string map stored as a JSON column
type StringMap map[string]string

// Value implements driver.Valuer for GORM serialization
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for GORM deserialization
func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringMap: %T", value)
	}
	if len(data) == 0 {
		*m = StringMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Provider is a stored upstream provider record. It is immutable for the
// duration of an import run or a reconciliation tick.
type Provider struct {
	shared.BaseEntity
	Name      string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	APIUrl    string     `gorm:"type:varchar(500);not null"`
	APIKey    string     `gorm:"type:varchar(255);not null"`
	Method    HTTPMethod `gorm:"type:varchar(10);not null;default:'POST'"`
	KeyParam  string     `gorm:"type:varchar(50);not null;default:'key'"`
	ActParam  string     `gorm:"type:varchar(50);not null;default:'action'"`
	Endpoints StringMap  `gorm:"type:text"` // action -> dedicated path, e.g. "categories"
	Headers   StringMap  `gorm:"type:text"` // extra headers sent on every call
	Currency  string     `gorm:"type:varchar(10);not null;default:'USD'"`
	// Rates maps a currency code to how many of its units buy one unit of
	// the base currency. The base currency itself needs no entry.
	Rates  StringMap `gorm:"type:text"`
	Status string    `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Provider) TableName() string {
	return "providers"
}

// NewProvider creates a provider record with defaulted parameter names
func NewProvider(name, apiURL, apiKey string) (*Provider, error) {
	p := &Provider{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		APIUrl:     strings.TrimSpace(apiURL),
		APIKey:     apiKey,
		Method:     HTTPMethodPost,
		KeyParam:   DefaultKeyParam,
		ActParam:   DefaultActionParam,
		Endpoints:  StringMap{},
		Headers:    StringMap{},
		Currency:   "USD",
		Rates:      StringMap{},
		Status:     "active",
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the record is usable for outbound calls
func (p *Provider) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrProviderNotConfigured)
	}
	if p.APIUrl == "" {
		return fmt.Errorf("%w: missing API URL", ErrProviderNotConfigured)
	}
	if p.APIKey == "" {
		return fmt.Errorf("%w: missing API key", ErrProviderNotConfigured)
	}
	return nil
}

// KeyParamName returns the configured credential parameter name or the default
func (p *Provider) KeyParamName() string {
	if p.KeyParam != "" {
		return p.KeyParam
	}
	return DefaultKeyParam
}

// ActionParamName returns the configured action parameter name or the default
func (p *Provider) ActionParamName() string {
	if p.ActParam != "" {
		return p.ActParam
	}
	return DefaultActionParam
}

// PreferredMethod returns the provider's declared verb, defaulting to POST
func (p *Provider) PreferredMethod() HTTPMethod {
	if p.Method == HTTPMethodGet {
		return HTTPMethodGet
	}
	return HTTPMethodPost
}

// EndpointFor returns the dedicated path for an action, if one is configured
func (p *Provider) EndpointFor(action string) (string, bool) {
	if p.Endpoints == nil {
		return "", false
	}
	path, ok := p.Endpoints[action]
	return path, ok && path != ""
}

// ExchangeRate returns how many provider-currency units buy one base unit.
// Identity for the base currency itself.
func (p *Provider) ExchangeRate(baseCurrency string) (decimal.Decimal, error) {
	cur := strings.ToUpper(strings.TrimSpace(p.Currency))
	if cur == "" || cur == strings.ToUpper(baseCurrency) {
		return decimal.NewFromInt(1), nil
	}
	raw, ok := p.Rates[cur]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingExchangeRate, cur)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingExchangeRate, cur)
	}
	return rate, nil
}
