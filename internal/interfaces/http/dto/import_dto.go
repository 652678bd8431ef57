package dto

// DiscoverRequest asks for a preview of a provider's catalog
type DiscoverRequest struct {
	ProviderID string   `json:"providerId" binding:"required,uuid"`
	Categories []string `json:"categories"`
}

// ImportRequest runs the import pipeline for the selected slice of the catalog
type ImportRequest struct {
	ProviderID   string   `json:"providerId" binding:"required,uuid"`
	Categories   []string `json:"categories"`
	Services     []string `json:"services"`
	ProfitMargin string   `json:"profitMargin"`
}

// DiscoverQuery carries the query-string variant of a discovery request
type DiscoverQuery struct {
	Action     string `form:"action" binding:"omitempty,oneof=categories services"`
	ProviderID string `form:"providerId" binding:"required,uuid"`
	Categories string `form:"categories"`
}
