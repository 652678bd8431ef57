package providerapi

import (
	"sort"
	"strings"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
)

// TypeMapper maps an upstream free-text "type" label onto the internal
// service-type taxonomy with a deterministic fallback chain: synonym
// table, substring containment, the "Default" type, then the
// lexicographically-first type.
type TypeMapper struct {
	synonyms map[string]string
}

// NewTypeMapper creates a mapper with the static synonym table
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{
		synonyms: map[string]string{
			"standard":         provider.DefaultServiceTypeName,
			"basic":            provider.DefaultServiceTypeName,
			"normal":           provider.DefaultServiceTypeName,
			"default":          provider.DefaultServiceTypeName,
			"custom comments":  "Custom comments",
			"special comments": "Custom comments",
			"mentions":         "Mentions",
			"package":          "Package",
			"subscription":     "Subscriptions",
			"subscriptions":    "Subscriptions",
			"poll":             "Poll",
		},
	}
}

// Resolve returns the internal service type for an upstream label. An
// empty taxonomy is a fatal configuration error for the whole import run.
func (m *TypeMapper) Resolve(label string, taxonomy []provider.ServiceType) (*provider.ServiceType, error) {
	if len(taxonomy) == 0 {
		return nil, provider.ErrNoServiceTypes
	}

	normalized := strings.ToLower(strings.TrimSpace(label))

	if target, ok := m.synonyms[normalized]; ok {
		if t := findByName(taxonomy, target); t != nil {
			return t, nil
		}
	}

	if normalized != "" {
		for i := range taxonomy {
			name := strings.ToLower(taxonomy[i].Name)
			if strings.Contains(normalized, name) || strings.Contains(name, normalized) {
				return &taxonomy[i], nil
			}
		}
	}

	if t := findByName(taxonomy, provider.DefaultServiceTypeName); t != nil {
		return t, nil
	}

	return lexicographicallyFirst(taxonomy), nil
}

func findByName(taxonomy []provider.ServiceType, name string) *provider.ServiceType {
	for i := range taxonomy {
		if strings.EqualFold(taxonomy[i].Name, name) {
			return &taxonomy[i]
		}
	}
	return nil
}

func lexicographicallyFirst(taxonomy []provider.ServiceType) *provider.ServiceType {
	names := make([]string, len(taxonomy))
	for i, t := range taxonomy {
		names[i] = t.Name
	}
	sort.Strings(names)
	return findByName(taxonomy, names[0])
}
