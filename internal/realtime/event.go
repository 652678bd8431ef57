package realtime

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType identifies a push-stream message
type EventType string

const (
	EventConnected    EventType = "connected"
	EventOrderUpdated EventType = "order_updated"
	EventSyncProgress EventType = "sync_progress"
	EventPing         EventType = "ping"
)

// OrderUpdate is the partial order projection carried by order_updated events
type OrderUpdate struct {
	OrderID         string          `json:"orderId"`
	Status          string          `json:"status"`
	StartCount      int             `json:"startCount"`
	Remains         int             `json:"remains"`
	Charge          decimal.Decimal `json:"charge"`
	ProviderOrderID string          `json:"providerOrderId,omitempty"`
}

// SyncProgress reports how far a reconciliation run has come
type SyncProgress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Updated   int `json:"updated"`
}

// Event is a typed push-stream message. It exists only on the wire.
type Event struct {
	Type      EventType     `json:"type"`
	Status    string        `json:"status,omitempty"`
	Order     *OrderUpdate  `json:"order,omitempty"`
	Progress  *SyncProgress `json:"progress,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(t EventType) Event {
	return Event{Type: t, Timestamp: time.Now().Unix()}
}

// NewOrderUpdated creates an order_updated event
func NewOrderUpdated(update OrderUpdate) Event {
	e := NewEvent(EventOrderUpdated)
	e.Order = &update
	return e
}

// NewSyncProgress creates a sync_progress event
func NewSyncProgress(progress SyncProgress) Event {
	e := NewEvent(EventSyncProgress)
	e.Progress = &progress
	return e
}

// Publisher fans an event out to the currently subscribed clients
type Publisher interface {
	Broadcast(e Event)
}
