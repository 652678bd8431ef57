package providerapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
)

// Default order bounds applied when a provider omits min/max
const (
	defaultMinOrder = 1
	defaultMaxOrder = 10000
)

// Ordered alias-priority tables per canonical field. The first alias
// PRESENT in the payload wins, even when its value is 0 or false: a
// legitimate provider value must not be skipped for being falsy.
var (
	idAliases          = []string{"service", "id"}
	rateAliases        = []string{"rate", "price"}
	descriptionAliases = []string{"description", "desc", "details", "info"}
	refillAliases      = []string{"refill", "refillable", "can_refill"}
	cancelAliases      = []string{"cancel", "cancelable", "can_cancel"}
)

// envelope keys accepted for service payloads, in priority order
var serviceEnvelopeKeys = []string{"data", "services"}

// NormalizeServices parses an arbitrary provider JSON payload into the
// canonical service set. Accepted envelopes: a bare array, {data:[...]},
// or {services:[...]}. Services retain provider order.
func NormalizeServices(raw []byte) ([]provider.CanonicalService, error) {
	items, err := unwrapEnvelope(raw, serviceEnvelopeKeys)
	if err != nil {
		return nil, err
	}

	services := make([]provider.CanonicalService, 0, len(items))
	for i, item := range items {
		svc, err := normalizeService(item)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", provider.ErrUnparseableResponse, i, err)
		}
		services = append(services, svc)
	}
	return services, nil
}

func normalizeService(item map[string]any) (provider.CanonicalService, error) {
	var svc provider.CanonicalService

	if v, _, ok := firstDefined(item, idAliases); ok {
		svc.ServiceID = looseString(v)
	}
	if svc.ServiceID == "" {
		return svc, fmt.Errorf("missing service id")
	}

	svc.Name = looseString(item["name"])
	svc.Category = looseString(item["category"])
	svc.Type = looseString(item["type"])

	rate, err := resolveRate(item)
	if err != nil {
		return svc, err
	}
	svc.Rate = rate

	svc.Min = looseInt(item, "min", defaultMinOrder)
	svc.Max = looseInt(item, "max", defaultMaxOrder)

	svc.Description = svc.Name
	if v, _, ok := firstDefined(item, descriptionAliases); ok {
		if s := looseString(v); s != "" {
			svc.Description = s
		}
	}

	if v, _, ok := firstDefined(item, refillAliases); ok {
		svc.Refill = looseBool(v)
	}
	if v, _, ok := firstDefined(item, cancelAliases); ok {
		svc.Cancel = looseBool(v)
	}

	return svc, nil
}

// resolveRate picks the price field. providerPrice takes priority, but
// only when it is accompanied by rate; otherwise rate, then price.
func resolveRate(item map[string]any) (decimal.Decimal, error) {
	if pp, hasPP := item["providerPrice"]; hasPP {
		if _, hasRate := item["rate"]; hasRate {
			return looseDecimal(pp)
		}
	}
	if v, _, ok := firstDefined(item, rateAliases); ok {
		return looseDecimal(v)
	}
	return decimal.Zero, fmt.Errorf("missing rate")
}

// AggregateCategories derives category summaries from a normalized service
// set: group by category label, count occurrences, drop empty or
// whitespace-only names, sort lexicographically for stable display.
func AggregateCategories(services []provider.CanonicalService) []provider.CategorySummary {
	counts := make(map[string]int)
	for _, svc := range services {
		name := strings.TrimSpace(svc.Category)
		if name == "" {
			continue
		}
		counts[name]++
	}

	categories := make([]provider.CategorySummary, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, provider.CategorySummary{Name: name, ServiceCount: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories
}

// NormalizeCategories parses a dedicated categories-endpoint payload.
// Items may be bare strings or objects carrying a name/category field.
func NormalizeCategories(raw []byte) ([]provider.CategorySummary, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnparseableResponse, err)
	}

	list, err := envelopeList(root, []string{"data", "categories"})
	if err != nil {
		return nil, err
	}

	categories := make([]provider.CategorySummary, 0, len(list))
	for _, entry := range list {
		var name string
		var count int
		switch v := entry.(type) {
		case string:
			name = v
		case map[string]any:
			if n, _, ok := firstDefined(v, []string{"name", "category"}); ok {
				name = looseString(n)
			}
			count = looseInt(v, "count", 0)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		categories = append(categories, provider.CategorySummary{Name: name, ServiceCount: count})
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// StatusResult is one order's reconciled view of provider state
type StatusResult struct {
	Status     provider.OrderStatus
	StartCount int
	Remains    int
	Charge     decimal.Decimal
	Err        string
}

// NormalizeOrderStatuses parses a multi-id status response: a JSON object
// keyed by provider order id, each value carrying status/remains/
// start_count/charge with the usual loose typing. Entries whose status
// label is unknown are reported through Err rather than dropped.
func NormalizeOrderStatuses(raw []byte) (map[string]StatusResult, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnparseableResponse, err)
	}

	// Some providers wrap the id-keyed object one level down.
	for _, key := range []string{"data", "orders"} {
		if inner, ok := root[key]; ok && len(root) == 1 {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(inner, &nested); err == nil {
				root = nested
			}
			break
		}
	}

	results := make(map[string]StatusResult, len(root))
	for orderID, rawEntry := range root {
		var entry map[string]any
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			results[orderID] = StatusResult{Err: "unparseable status entry"}
			continue
		}

		if msg, ok := entry["error"]; ok {
			results[orderID] = StatusResult{Err: looseString(msg)}
			continue
		}

		label := looseString(entry["status"])
		status, ok := provider.ParseOrderStatus(label)
		if !ok {
			results[orderID] = StatusResult{Err: fmt.Sprintf("unknown status %q", label)}
			continue
		}

		charge, _ := looseDecimal(entry["charge"])
		results[orderID] = StatusResult{
			Status:     status,
			StartCount: looseInt(entry, "start_count", 0),
			Remains:    looseInt(entry, "remains", 0),
			Charge:     charge,
		}
	}
	return results, nil
}

// unwrapEnvelope accepts a bare array or the first non-empty of the given
// envelope keys, and type-checks every element as an object
func unwrapEnvelope(raw []byte, keys []string) ([]map[string]any, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnparseableResponse, err)
	}

	list, err := envelopeList(root, keys)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is not an object", provider.ErrUnparseableResponse, i)
		}
		items = append(items, obj)
	}
	return items, nil
}

func envelopeList(root any, keys []string) ([]any, error) {
	switch v := root.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range keys {
			if inner, ok := v[key]; ok {
				if list, ok := inner.([]any); ok && len(list) > 0 {
					return list, nil
				}
			}
		}
	}
	return nil, provider.ErrUnparseableResponse
}

// firstDefined walks the alias list and returns the value of the first
// alias PRESENT in the item, along with which alias matched
func firstDefined(item map[string]any, aliases []string) (any, string, bool) {
	for _, alias := range aliases {
		if v, ok := item[alias]; ok {
			return v, alias, true
		}
	}
	return nil, "", false
}

// looseBool accepts literal true, 1, "1" and "true" (case-insensitive)
// as true; everything else is false
func looseBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "1" || s == "true"
	}
	return false
}

func looseString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func looseInt(item map[string]any, key string, def int) int {
	v, ok := item[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return def
}

func looseDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid number %q", n)
		}
		return d, nil
	case nil:
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("invalid number %v", v)
}
