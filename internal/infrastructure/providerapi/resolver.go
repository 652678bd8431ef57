package providerapi

import (
	"net/url"
	"strings"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/infrastructure/transport"
)

// Logical provider actions. Every provider exposes these over the same
// endpoint with an action parameter; some expose dedicated paths per action.
const (
	ActionServices   = "services"
	ActionCategories = "categories"
	ActionStatus     = "status"
	ActionAdd        = "add"
	ActionCancel     = "cancel"
	ActionBalance    = "balance"
)

// Resolver turns a stored provider record into ready-to-send request
// templates. It owns no transport concerns.
type Resolver struct{}

// Build creates the request template for one action using the given verb.
// Credential and action parameter names come from the provider record
// (defaults "key"/"action"); extra parameters are merged in.
func (Resolver) Build(p *provider.Provider, action string, extra url.Values, method provider.HTTPMethod) *transport.Request {
	form := url.Values{}
	form.Set(p.KeyParamName(), p.APIKey)
	form.Set(p.ActionParamName(), action)
	for k, vs := range extra {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	headers := make(map[string]string, len(p.Headers))
	for k, v := range p.Headers {
		headers[k] = v
	}

	return &transport.Request{
		Method:  string(method),
		URL:     endpointURL(p, action),
		Form:    form,
		Headers: headers,
	}
}

// MethodOrder returns the provider's preferred verb followed by the
// alternate, the order the request-shape fallback walks
func (Resolver) MethodOrder(p *provider.Provider) [2]provider.HTTPMethod {
	preferred := p.PreferredMethod()
	return [2]provider.HTTPMethod{preferred, preferred.Alternate()}
}

// endpointURL prefers a dedicated endpoint-map path for the action and
// falls back to the provider's base URL
func endpointURL(p *provider.Provider, action string) string {
	path, ok := p.EndpointFor(action)
	if !ok {
		return p.APIUrl
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(p.APIUrl, "/") + "/" + strings.TrimLeft(path, "/")
}
