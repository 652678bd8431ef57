package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/application/catalogimport"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
)

// ImportHandler exposes catalog discovery and import over HTTP.
//
// POST previews a provider's catalog without persisting anything, PUT runs
// the import pipeline, and GET serves the query-string discovery variants
// some panel frontends still use.
type ImportHandler struct {
	BaseHandler
	pipeline *catalogimport.Pipeline
	logger   *zap.Logger
}

// NewImportHandler creates an ImportHandler
func NewImportHandler(pipeline *catalogimport.Pipeline, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// RegisterRoutes registers import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("", h.Discover)
		imports.PUT("", h.Import)
		imports.GET("", h.DiscoverQuery)
	}
}

// Discover previews the provider catalog filtered by category
func (h *ImportHandler) Discover(c *gin.Context) {
	var req dto.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		h.BadRequest(c, "Invalid provider id")
		return
	}

	result, err := h.pipeline.Discover(c.Request.Context(), providerID, req.Categories)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Import runs the pipeline for the selected categories or service ids
func (h *ImportHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		h.BadRequest(c, "Invalid provider id")
		return
	}

	margin := decimal.Zero
	if req.ProfitMargin != "" {
		margin, err = decimal.NewFromString(req.ProfitMargin)
		if err != nil {
			h.BadRequest(c, "Invalid profit margin")
			return
		}
	}
	if margin.IsNegative() {
		h.BadRequest(c, "Profit margin must not be negative")
		return
	}

	result, err := h.pipeline.Import(c.Request.Context(), catalogimport.ImportRequest{
		ProviderID:   providerID,
		Categories:   req.Categories,
		ServiceIDs:   req.Services,
		ProfitMargin: margin,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.ErrorCount() > 0 {
		h.logger.Warn("catalog import finished with item errors",
			zap.String("provider_id", providerID.String()),
			zap.Int("imported", result.Imported),
			zap.Int("errors", result.ErrorCount()),
		)
	}
	h.Success(c, result)
}

// DiscoverQuery serves GET /import?action=categories|services&providerId=...
func (h *ImportHandler) DiscoverQuery(c *gin.Context) {
	var q dto.DiscoverQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	providerID, err := uuid.Parse(q.ProviderID)
	if err != nil {
		h.BadRequest(c, "Invalid provider id")
		return
	}

	result, err := h.pipeline.Discover(c.Request.Context(), providerID, splitCategories(q.Categories))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	switch q.Action {
	case "categories":
		h.Success(c, result.Categories)
	case "services":
		h.Success(c, result.Services)
	default:
		h.Success(c, result)
	}
}

func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
