package provider

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

// OrderStatus is the fulfillment status of a local order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsTerminal reports whether no further reconciliation transition is
// permitted from this status
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Terminal states permit nothing; partial may only complete or be
// cancelled/refunded; failed may be resent back to pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if s == next {
		return true
	}
	switch next {
	case OrderStatusCancelled, OrderStatusRefunded:
		// Any non-terminal state may be cancelled or refunded.
		return true
	}
	switch s {
	case OrderStatusPending:
		switch next {
		case OrderStatusProcessing, OrderStatusInProgress, OrderStatusCompleted,
			OrderStatusPartial, OrderStatusFailed:
			return true
		}
	case OrderStatusProcessing, OrderStatusInProgress:
		switch next {
		case OrderStatusProcessing, OrderStatusInProgress, OrderStatusCompleted,
			OrderStatusPartial, OrderStatusFailed:
			return true
		}
	case OrderStatusPartial:
		return next == OrderStatusCompleted
	case OrderStatusFailed:
		return next == OrderStatusPending
	}
	return false
}

// ParseOrderStatus maps the loose status labels providers return onto the
// internal status set
func ParseOrderStatus(label string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "pending", "queued", "awaiting":
		return OrderStatusPending, true
	case "processing":
		return OrderStatusProcessing, true
	case "in progress", "in_progress", "inprogress", "active":
		return OrderStatusInProgress, true
	case "completed", "complete", "done":
		return OrderStatusCompleted, true
	case "partial", "partially completed":
		return OrderStatusPartial, true
	case "canceled", "cancelled":
		return OrderStatusCancelled, true
	case "refunded", "refund":
		return OrderStatusRefunded, true
	case "failed", "fail", "error":
		return OrderStatusFailed, true
	}
	return "", false
}

// Order is the subset of a local order the synchronization engine owns:
// fulfillment state plus the provider linkage needed to poll it
type Order struct {
	shared.BaseEntity
	Status            OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Quantity          int             `gorm:"not null"`
	StartCount        int             `gorm:"not null;default:0"`
	Remains           int             `gorm:"not null;default:0"`
	Charge            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ProviderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProviderServiceID string          `gorm:"type:varchar(100);not null"`
	ProviderOrderID   string          `gorm:"type:varchar(100);index"`
	Link              string          `gorm:"type:varchar(1000)"`
	LastSyncedAt      *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// SyncUpdate is the reconciled delta a polling cycle wants to apply
type SyncUpdate struct {
	Status     OrderStatus
	StartCount int
	Remains    int
	Charge     decimal.Decimal
}

// Differs reports whether applying the update would change the stored fields
func (o *Order) Differs(u SyncUpdate) bool {
	return o.Status != u.Status ||
		o.StartCount != u.StartCount ||
		o.Remains != u.Remains ||
		!o.Charge.Equal(u.Charge)
}

// ApplySyncUpdate applies a polling-derived update. Terminal statuses are
// never overwritten, and transitions the state machine forbids are rejected.
func (o *Order) ApplySyncUpdate(u SyncUpdate, syncedAt time.Time) error {
	if o.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	if !o.Status.CanTransitionTo(u.Status) {
		return ErrInvalidTransition
	}
	o.Status = u.Status
	o.StartCount = u.StartCount
	o.Remains = u.Remains
	o.Charge = u.Charge
	o.LastSyncedAt = &syncedAt
	return nil
}

// MarkResent resets a failed order for re-placement with the provider
func (o *Order) MarkResent(providerOrderID string) error {
	if !o.Status.CanTransitionTo(OrderStatusPending) {
		return ErrInvalidTransition
	}
	o.Status = OrderStatusPending
	o.ProviderOrderID = providerOrderID
	o.StartCount = 0
	o.Remains = o.Quantity
	return nil
}

// MarkCancelled records an explicit cancellation
func (o *Order) MarkCancelled() error {
	if o.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	o.Status = OrderStatusCancelled
	return nil
}
