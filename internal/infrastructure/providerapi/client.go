package providerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/transport"
)

// DefaultProbeTimeout bounds reachability probes
const DefaultProbeTimeout = 5 * time.Second

// Client talks to upstream provider APIs: catalog discovery, order status
// polling, order placement and cancellation. Each logical call walks the
// request-shape fallback (preferred verb with retries, then the alternate
// verb with retries) independently.
type Client struct {
	transport    *transport.Client
	resolver     Resolver
	retry        transport.RetryConfig
	probeTimeout time.Duration
	logger       *zap.Logger
}

// ClientOption is a functional option for Client configuration
type ClientOption func(*Client)

// WithRetryConfig sets the retry policy shared by all provider calls
func WithRetryConfig(cfg transport.RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithProbeTimeout sets the reachability probe timeout
func WithProbeTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.probeTimeout = d
	}
}

// WithClientLogger sets the logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a provider API client on top of a transport client
func NewClient(tc *transport.Client, opts ...ClientOption) *Client {
	c := &Client{
		transport:    tc,
		retry:        transport.DefaultRetryConfig(),
		probeTimeout: DefaultProbeTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchServices retrieves and normalizes the provider's full service list
func (c *Client) FetchServices(ctx context.Context, p *provider.Provider) ([]provider.CanonicalService, error) {
	return fetchWithFallback(ctx, c, p, ActionServices, nil, NormalizeServices)
}

// FetchCategories retrieves the provider's category list. A dedicated
// endpoints.categories path is preferred; without one, categories are
// derived by aggregating the full service list.
func (c *Client) FetchCategories(ctx context.Context, p *provider.Provider) ([]provider.CategorySummary, error) {
	if _, ok := p.EndpointFor(ActionCategories); ok {
		return fetchWithFallback(ctx, c, p, ActionCategories, nil, NormalizeCategories)
	}

	services, err := c.FetchServices(ctx, p)
	if err != nil {
		return nil, err
	}
	return AggregateCategories(services), nil
}

// OrderStatuses batch-queries the provider for the current state of the
// given provider order ids, one call for the whole batch
func (c *Client) OrderStatuses(ctx context.Context, p *provider.Provider, orderIDs []string) (map[string]StatusResult, error) {
	if len(orderIDs) == 0 {
		return map[string]StatusResult{}, nil
	}
	extra := url.Values{}
	extra.Set("orders", strings.Join(orderIDs, ","))
	return fetchWithFallback(ctx, c, p, ActionStatus, extra, NormalizeOrderStatuses)
}

// PlaceOrder places (or re-places) an order with the provider and returns
// the provider order id
func (c *Client) PlaceOrder(ctx context.Context, p *provider.Provider, serviceID, link string, quantity int) (string, error) {
	extra := url.Values{}
	extra.Set("service", serviceID)
	extra.Set("link", link)
	extra.Set("quantity", strconv.Itoa(quantity))
	return fetchWithFallback(ctx, c, p, ActionAdd, extra, parsePlacedOrder)
}

// CancelOrder asks the provider to cancel an in-flight order
func (c *Client) CancelOrder(ctx context.Context, p *provider.Provider, providerOrderID string) error {
	extra := url.Values{}
	extra.Set("order", providerOrderID)
	_, err := fetchWithFallback(ctx, c, p, ActionCancel, extra, parseAck)
	return err
}

// Probe checks reachability with a short single-attempt balance call
func (c *Client) Probe(ctx context.Context, p *provider.Provider) error {
	req := c.resolver.Build(p, ActionBalance, nil, p.PreferredMethod())
	req.Timeout = c.probeTimeout
	_, err := c.transport.Send(ctx, req)
	return err
}

// fetchWithFallback issues one logical call: the preferred verb wrapped in
// the retry policy, then on transport failure or an unparseable body the
// alternate verb once, also with retries. A parse failure is never itself
// retried on the same verb.
func fetchWithFallback[T any](ctx context.Context, c *Client, p *provider.Provider, action string, extra url.Values, parse func([]byte) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for _, method := range c.resolver.MethodOrder(p) {
		req := c.resolver.Build(p, action, extra, method)

		body, err := transport.Retry(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
			return c.transport.Send(ctx, req)
		})
		if err != nil {
			lastErr = err
			c.logger.Warn("provider call failed, trying alternate verb",
				zap.String("provider", p.Name),
				zap.String("action", action),
				zap.String("method", string(method)),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result, perr := parse(body)
		if perr != nil {
			lastErr = perr
			c.logger.Warn("provider response unparseable, trying alternate verb",
				zap.String("provider", p.Name),
				zap.String("action", action),
				zap.String("method", string(method)),
				zap.Error(perr),
			)
			continue
		}

		return result, nil
	}

	return zero, fmt.Errorf("%w: %s %s: %v", provider.ErrFetchFailed, p.Name, action, lastErr)
}

// parsePlacedOrder extracts the provider order id from an add response
func parsePlacedOrder(raw []byte) (string, error) {
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrUnparseableResponse, err)
	}
	if msg, ok := resp["error"]; ok {
		return "", fmt.Errorf("provider rejected order: %s", looseString(msg))
	}
	if id := looseString(resp["order"]); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: missing order id", provider.ErrUnparseableResponse)
}

// parseAck accepts any JSON object without an error field
func parseAck(raw []byte) (struct{}, error) {
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return struct{}{}, fmt.Errorf("%w: %v", provider.ErrUnparseableResponse, err)
	}
	if msg, ok := resp["error"]; ok {
		return struct{}{}, fmt.Errorf("provider error: %s", looseString(msg))
	}
	return struct{}{}, nil
}
