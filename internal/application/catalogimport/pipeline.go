package catalogimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/providerapi"
)

// ProviderAPI is the slice of the provider client the pipeline needs
type ProviderAPI interface {
	FetchServices(ctx context.Context, p *provider.Provider) ([]provider.CanonicalService, error)
	FetchCategories(ctx context.Context, p *provider.Provider) ([]provider.CategorySummary, error)
}

// Pipeline imports a provider's catalog into the local store: fetch,
// filter, de-duplicate, price, persist. Per-item results are accumulated
// rather than failing the whole batch.
type Pipeline struct {
	api          ProviderAPI
	providers    provider.Repository
	services     provider.ServiceRepository
	categories   provider.CategoryRepository
	types        provider.ServiceTypeRepository
	mapper       *providerapi.TypeMapper
	baseCurrency string
	logger       *zap.Logger
}

// PipelineOption is a functional option for Pipeline configuration
type PipelineOption func(*Pipeline)

// WithBaseCurrency sets the base currency rates are converted into
func WithBaseCurrency(code string) PipelineOption {
	return func(p *Pipeline) {
		p.baseCurrency = code
	}
}

// WithPipelineLogger sets the logger
func WithPipelineLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates an import pipeline
func NewPipeline(
	api ProviderAPI,
	providers provider.Repository,
	services provider.ServiceRepository,
	categories provider.CategoryRepository,
	types provider.ServiceTypeRepository,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		api:          api,
		providers:    providers,
		services:     services,
		categories:   categories,
		types:        types,
		mapper:       providerapi.NewTypeMapper(),
		baseCurrency: "USD",
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Discover fetches and filters a provider's catalog for operator review.
// Nothing is persisted.
func (p *Pipeline) Discover(ctx context.Context, providerID uuid.UUID, requested []string) (*DiscoveryResult, error) {
	prov, err := p.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	categories, err := p.api.FetchCategories(ctx, prov)
	if err != nil {
		return nil, err
	}
	categories = filterCategories(categories, requested)

	services, err := p.api.FetchServices(ctx, prov)
	if err != nil {
		return nil, err
	}
	services = filterServices(services, requested)

	return &DiscoveryResult{
		Provider:   prov.Name,
		Categories: categories,
		Services:   services,
	}, nil
}

// Import runs the full pipeline. Single-item failures are recorded and
// never abort the loop; already-persisted items of a partially failed run
// stay persisted.
func (p *Pipeline) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	prov, err := p.providers.FindByID(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	taxonomy, err := p.types.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(taxonomy) == 0 {
		// Fatal: there is no target taxonomy to map imported services into.
		return nil, provider.ErrNoServiceTypes
	}

	fetched, err := p.api.FetchServices(ctx, prov)
	if err != nil {
		return nil, err
	}

	candidates := filterServices(fetched, req.Categories)
	if len(req.ServiceIDs) > 0 {
		candidates = pickServices(candidates, req.ServiceIDs)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for _, svc := range candidates {
		if skipped, err := p.importOne(ctx, prov, svc, req, taxonomy); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", svc.Name, err))
			p.logger.Warn("service import failed",
				zap.String("provider", prov.Name),
				zap.String("service", svc.Name),
				zap.Error(err),
			)
		} else if skipped {
			result.Skipped++
		} else {
			result.Imported++
		}
	}

	p.logger.Info("catalog import finished",
		zap.String("provider", prov.Name),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.ErrorCount()),
	)
	return result, nil
}

// importOne persists one catalog entry. The bool result reports a
// duplicate skip.
func (p *Pipeline) importOne(ctx context.Context, prov *provider.Provider, svc provider.CanonicalService, req ImportRequest, taxonomy []provider.ServiceType) (bool, error) {
	if dup, err := p.isDuplicate(ctx, prov.ID, svc); err != nil {
		return false, err
	} else if dup {
		return true, nil
	}

	exRate, err := prov.ExchangeRate(p.baseCurrency)
	if err != nil {
		return false, err
	}
	baseRate := svc.Rate.Div(exRate)
	finalRate := provider.MarginPercent(baseRate, req.ProfitMargin)

	svcType, err := p.mapper.Resolve(svc.Type, taxonomy)
	if err != nil {
		return false, err
	}

	category, err := p.resolveCategory(ctx, svc.Category)
	if err != nil {
		return false, err
	}

	record := &provider.Service{
		BaseEntity:        shared.NewBaseEntity(),
		Name:              svc.Name,
		CategoryID:        category.ID,
		TypeID:            svcType.ID,
		Rate:              finalRate,
		Min:               svc.Min,
		Max:               svc.Max,
		Refill:            svc.Refill,
		Cancel:            svc.Cancel,
		Description:       svc.Description,
		ProviderID:        prov.ID,
		ProviderServiceID: svc.ServiceID,
		ProviderRate:      baseRate.Round(4),
	}
	if err := p.services.Create(ctx, record); err != nil {
		return false, err
	}
	return false, nil
}

// isDuplicate checks the existing catalog by exact name and by provider
// linkage; either match skips the item
func (p *Pipeline) isDuplicate(ctx context.Context, providerID uuid.UUID, svc provider.CanonicalService) (bool, error) {
	if _, err := p.services.FindByName(ctx, svc.Name); err == nil {
		return true, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	if _, err := p.services.FindByProviderLink(ctx, providerID, svc.ServiceID); err == nil {
		return true, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	return false, nil
}

// resolveCategory finds a local category by exact name or creates it
func (p *Pipeline) resolveCategory(ctx context.Context, name string) (*provider.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Uncategorized"
	}

	existing, err := p.categories.FindByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	created, err := provider.NewCategory(name)
	if err != nil {
		return nil, err
	}
	if err := p.categories.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// matchCategory tolerates minor naming drift between systems: the
// requested label may be a substring of the provider label or vice
// versa, case-insensitively
func matchCategory(requested, label string) bool {
	r := strings.ToLower(strings.TrimSpace(requested))
	l := strings.ToLower(strings.TrimSpace(label))
	if r == "" || l == "" {
		return false
	}
	return strings.Contains(l, r) || strings.Contains(r, l)
}

func matchAny(requested []string, label string) bool {
	if len(requested) == 0 {
		return true
	}
	for _, r := range requested {
		if matchCategory(r, label) {
			return true
		}
	}
	return false
}

func filterCategories(categories []provider.CategorySummary, requested []string) []provider.CategorySummary {
	if len(requested) == 0 {
		return categories
	}
	filtered := make([]provider.CategorySummary, 0, len(categories))
	for _, c := range categories {
		if matchAny(requested, c.Name) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func filterServices(services []provider.CanonicalService, requested []string) []provider.CanonicalService {
	if len(requested) == 0 {
		return services
	}
	filtered := make([]provider.CanonicalService, 0, len(services))
	for _, s := range services {
		if matchAny(requested, s.Category) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func pickServices(services []provider.CanonicalService, ids []string) []provider.CanonicalService {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	picked := make([]provider.CanonicalService, 0, len(ids))
	for _, s := range services {
		if _, ok := wanted[s.ServiceID]; ok {
			picked = append(picked, s)
		}
	}
	return picked
}
