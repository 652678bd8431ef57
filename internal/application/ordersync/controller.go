package ordersync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/realtime"
)

// ControlAPI is the slice of the provider client order control needs
type ControlAPI interface {
	PlaceOrder(ctx context.Context, p *provider.Provider, serviceID, link string, quantity int) (string, error)
	CancelOrder(ctx context.Context, p *provider.Provider, providerOrderID string) error
}

// Controller performs explicit order control actions against the
// provider: re-placing a failed order and cancelling an in-flight one.
// Both emit the same events the scheduler does so connected clients see
// the change immediately.
type Controller struct {
	orders    provider.OrderRepository
	providers provider.Repository
	api       ControlAPI
	events    realtime.Publisher
	logger    *zap.Logger
}

// NewController creates an order control service
func NewController(orders provider.OrderRepository, providers provider.Repository, api ControlAPI, events realtime.Publisher, logger *zap.Logger) *Controller {
	return &Controller{
		orders:    orders,
		providers: providers,
		api:       api,
		events:    events,
		logger:    logger,
	}
}

// Resend re-places a failed order with its provider and resets it to
// pending under the new provider order id
func (c *Controller) Resend(ctx context.Context, orderID uuid.UUID) (*provider.Order, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != provider.OrderStatusFailed {
		return nil, ErrNotResendable
	}

	prov, err := c.providers.FindByID(ctx, order.ProviderID)
	if err != nil {
		return nil, err
	}

	providerOrderID, err := c.api.PlaceOrder(ctx, prov, order.ProviderServiceID, order.Link, order.Quantity)
	if err != nil {
		return nil, err
	}

	if err := order.MarkResent(providerOrderID); err != nil {
		return nil, err
	}
	if err := c.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	c.logger.Info("order resent to provider",
		zap.String("order_id", order.ID.String()),
		zap.String("provider", prov.Name),
		zap.String("provider_order_id", providerOrderID),
	)
	c.broadcast(order)
	return order, nil
}

// Cancel requests provider-side cancellation and marks the order
// cancelled locally
func (c *Controller) Cancel(ctx context.Context, orderID uuid.UUID) (*provider.Order, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, provider.ErrTerminalStatus
	}

	prov, err := c.providers.FindByID(ctx, order.ProviderID)
	if err != nil {
		return nil, err
	}

	if order.ProviderOrderID != "" {
		if err := c.api.CancelOrder(ctx, prov, order.ProviderOrderID); err != nil {
			return nil, err
		}
	}

	if err := order.MarkCancelled(); err != nil {
		return nil, err
	}
	if err := c.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	c.logger.Info("order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("provider", prov.Name),
	)
	c.broadcast(order)
	return order, nil
}

func (c *Controller) broadcast(order *provider.Order) {
	c.events.Broadcast(realtime.NewOrderUpdated(realtime.OrderUpdate{
		OrderID:         order.ID.String(),
		Status:          string(order.Status),
		StartCount:      order.StartCount,
		Remains:         order.Remains,
		Charge:          order.Charge,
		ProviderOrderID: order.ProviderOrderID,
	}))
}
