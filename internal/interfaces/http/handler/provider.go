package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
)

// Prober checks whether a provider endpoint answers at all
type Prober interface {
	Probe(ctx context.Context, p *provider.Provider) error
}

// ProviderHandler exposes provider reachability checks
type ProviderHandler struct {
	BaseHandler
	providers provider.Repository
	prober    Prober
	logger    *zap.Logger
}

// NewProviderHandler creates a ProviderHandler
func NewProviderHandler(providers provider.Repository, prober Prober, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		providers: providers,
		prober:    prober,
		logger:    logger,
	}
}

// RegisterRoutes registers provider routes
func (h *ProviderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	providers := rg.Group("/providers")
	{
		providers.GET("/:id/status", h.Status)
	}
}

// Status runs a short reachability probe against the provider endpoint.
// A failed probe is a 200 with reachable=false: the provider being down
// is a valid answer, not a server error.
func (h *ProviderHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid provider id")
		return
	}

	prov, err := h.providers.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	start := time.Now()
	probeErr := h.prober.Probe(c.Request.Context(), prov)
	latency := time.Since(start)

	resp := dto.ProviderStatusResponse{
		Provider:  prov.Name,
		Reachable: probeErr == nil,
		LatencyMs: latency.Milliseconds(),
	}
	if probeErr != nil {
		resp.Error = probeErr.Error()
		h.logger.Warn("provider probe failed",
			zap.String("provider", prov.Name),
			zap.Duration("latency", latency),
			zap.Error(probeErr),
		)
	}

	h.Success(c, resp)
}
