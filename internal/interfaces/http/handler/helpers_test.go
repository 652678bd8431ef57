package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/providerapi"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(registrars ...router.RouteRegistrar) *gin.Engine {
	engine := gin.New()
	r := router.NewRouter(engine)
	for _, reg := range registrars {
		r.Register(reg)
	}
	r.Setup()
	return engine
}

func perform(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) dto.Response {
	t.Helper()
	require.Equal(t, status, w.Code)
	resp := decodeEnvelope(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	return resp
}

// dataMap re-decodes the envelope data into a generic map
func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "expected object data, got %T", resp.Data)
	return m
}

type stubProviderRepo struct {
	byID map[uuid.UUID]*provider.Provider
}

func singleProviderRepo(p *provider.Provider) *stubProviderRepo {
	return &stubProviderRepo{byID: map[uuid.UUID]*provider.Provider{p.ID: p}}
}

func (r *stubProviderRepo) FindByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *stubProviderRepo) FindActive(ctx context.Context) ([]provider.Provider, error) {
	out := make([]provider.Provider, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProviderRepo) Save(ctx context.Context, p *provider.Provider) error {
	r.byID[p.ID] = p
	return nil
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*provider.Order
}

func singleOrderRepo(orders ...*provider.Order) *stubOrderRepo {
	r := &stubOrderRepo{orders: make(map[uuid.UUID]*provider.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*provider.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) FindActive(ctx context.Context) ([]provider.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]provider.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if !o.Status.IsTerminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) Update(ctx context.Context, o *provider.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

type stubCatalogAPI struct {
	services   []provider.CanonicalService
	categories []provider.CategorySummary
	err        error
}

func (s *stubCatalogAPI) FetchServices(ctx context.Context, p *provider.Provider) ([]provider.CanonicalService, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.services, nil
}

func (s *stubCatalogAPI) FetchCategories(ctx context.Context, p *provider.Provider) ([]provider.CategorySummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.categories, nil
}

type stubStatusAPI struct {
	fn func(ids []string) (map[string]providerapi.StatusResult, error)
}

func (s *stubStatusAPI) OrderStatuses(ctx context.Context, p *provider.Provider, orderIDs []string) (map[string]providerapi.StatusResult, error) {
	if s.fn == nil {
		return map[string]providerapi.StatusResult{}, nil
	}
	return s.fn(orderIDs)
}

type stubControlAPI struct {
	placeID   string
	placeErr  error
	cancelErr error
}

func (s *stubControlAPI) PlaceOrder(ctx context.Context, p *provider.Provider, serviceID, link string, quantity int) (string, error) {
	if s.placeErr != nil {
		return "", s.placeErr
	}
	return s.placeID, nil
}

func (s *stubControlAPI) CancelOrder(ctx context.Context, p *provider.Provider, providerOrderID string) error {
	return s.cancelErr
}

type stubProber struct {
	err error
}

func (s *stubProber) Probe(ctx context.Context, p *provider.Provider) error {
	return s.err
}

func testProvider(t *testing.T) *provider.Provider {
	t.Helper()
	p, err := provider.NewProvider("smmkings", "https://smmkings.example/api/v2", "secret")
	require.NoError(t, err)
	return p
}
