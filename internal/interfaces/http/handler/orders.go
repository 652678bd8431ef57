package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/application/ordersync"
	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
)

// OrderSyncHandler exposes the reconciliation loop and order control actions
type OrderSyncHandler struct {
	BaseHandler
	scheduler  *ordersync.Scheduler
	controller *ordersync.Controller
	logger     *zap.Logger
}

// NewOrderSyncHandler creates an OrderSyncHandler
func NewOrderSyncHandler(scheduler *ordersync.Scheduler, controller *ordersync.Controller, logger *zap.Logger) *OrderSyncHandler {
	return &OrderSyncHandler{
		scheduler:  scheduler,
		controller: controller,
		logger:     logger,
	}
}

// RegisterRoutes registers order sync routes
func (h *OrderSyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/sync", h.TriggerSync)
		orders.GET("/sync/history", h.SyncHistory)
		orders.POST("/:id/resend", h.Resend)
		orders.POST("/:id/cancel", h.Cancel)
	}
}

// TriggerSync fires one reconciliation run immediately
func (h *OrderSyncHandler) TriggerSync(c *gin.Context) {
	summary, err := h.scheduler.TriggerNow(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncRunResponse(*summary))
}

// SyncHistory returns recent run summaries, newest first
func (h *OrderSyncHandler) SyncHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	runs := h.scheduler.History(limit)
	out := make([]dto.SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toSyncRunResponse(run))
	}
	h.Success(c, out)
}

// Resend re-places a failed order with its provider
func (h *OrderSyncHandler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order id")
		return
	}

	order, err := h.controller.Resend(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// Cancel requests provider-side cancellation of an order
func (h *OrderSyncHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order id")
		return
	}

	order, err := h.controller.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

func toSyncRunResponse(run ordersync.RunSummary) dto.SyncRunResponse {
	return dto.SyncRunResponse{
		StartedAt: run.StartedAt,
		Duration:  run.Duration.String(),
		Total:     run.Total,
		Updated:   run.Updated,
		Skipped:   run.Skipped,
		Failed:    run.Failed,
		Error:     run.Error,
	}
}

func toOrderResponse(order *provider.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:              order.ID.String(),
		Status:          string(order.Status),
		Quantity:        order.Quantity,
		StartCount:      order.StartCount,
		Remains:         order.Remains,
		Charge:          order.Charge.String(),
		ProviderOrderID: order.ProviderOrderID,
		Link:            order.Link,
	}
}
