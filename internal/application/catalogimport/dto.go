package catalogimport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
)

// DiscoveryResult is what the operator reviews before importing:
// the provider's filtered catalog, nothing persisted
type DiscoveryResult struct {
	Provider   string                      `json:"provider"`
	Categories []provider.CategorySummary  `json:"categories"`
	Services   []provider.CanonicalService `json:"services"`
}

// ImportRequest selects what to import and how to price it
type ImportRequest struct {
	ProviderID uuid.UUID
	// Categories restricts the import by provider category label,
	// matched with bidirectional case-insensitive substring containment.
	Categories []string
	// ServiceIDs optionally restricts to operator-picked upstream ids.
	ServiceIDs []string
	// ProfitMargin is the percentage markup applied on top of the
	// base-currency provider rate.
	ProfitMargin decimal.Decimal
}

// ImportResult accumulates the per-item outcomes of one pipeline run.
// It is reported to the caller and then discarded.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ErrorCount returns how many items failed
func (r *ImportResult) ErrorCount() int {
	return len(r.Errors)
}
