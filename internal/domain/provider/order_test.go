package provider

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
)

func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded}
	active := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusInProgress, OrderStatusPartial, OrderStatusFailed}

	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range active {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusInProgress, true},
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusProcessing, OrderStatusInProgress, true},
		{OrderStatusProcessing, OrderStatusPartial, true},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusFailed, true},

		// Partial may only complete.
		{OrderStatusPartial, OrderStatusCompleted, true},
		{OrderStatusPartial, OrderStatusProcessing, false},
		{OrderStatusPartial, OrderStatusFailed, false},

		// Failed may only be resent back to pending.
		{OrderStatusFailed, OrderStatusPending, true},
		{OrderStatusFailed, OrderStatusProcessing, false},
		{OrderStatusFailed, OrderStatusCompleted, false},

		// Any non-terminal state may be cancelled or refunded.
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPartial, OrderStatusRefunded, true},
		{OrderStatusFailed, OrderStatusCancelled, true},

		// Terminal states permit nothing, including themselves.
		{OrderStatusCompleted, OrderStatusCompleted, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusRefunded, false},
		{OrderStatusRefunded, OrderStatusPending, false},

		// Self transitions on active states are no-ops, not violations.
		{OrderStatusPending, OrderStatusPending, true},
		{OrderStatusInProgress, OrderStatusInProgress, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		label string
		want  OrderStatus
		ok    bool
	}{
		{"Completed", OrderStatusCompleted, true},
		{"  In progress ", OrderStatusInProgress, true},
		{"in_progress", OrderStatusInProgress, true},
		{"PARTIAL", OrderStatusPartial, true},
		{"canceled", OrderStatusCancelled, true},
		{"cancelled", OrderStatusCancelled, true},
		{"queued", OrderStatusPending, true},
		{"error", OrderStatusFailed, true},
		{"refund", OrderStatusRefunded, true},
		{"banana", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOrderStatus(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func testOrder(status OrderStatus) *Order {
	return &Order{
		BaseEntity:        shared.NewBaseEntity(),
		Status:            status,
		Quantity:          1000,
		StartCount:        120,
		Remains:           500,
		Charge:            decimal.RequireFromString("1.50"),
		ProviderID:        uuid.New(),
		ProviderServiceID: "9",
		ProviderOrderID:   "31337",
		Link:              "https://insta.example/p/1",
	}
}

func TestOrder_Differs(t *testing.T) {
	o := testOrder(OrderStatusInProgress)
	same := SyncUpdate{Status: OrderStatusInProgress, StartCount: 120, Remains: 500, Charge: decimal.RequireFromString("1.5")}
	assert.False(t, o.Differs(same), "trailing zeros are not a delta")

	assert.True(t, o.Differs(SyncUpdate{Status: OrderStatusCompleted, StartCount: 120, Remains: 500, Charge: same.Charge}))
	assert.True(t, o.Differs(SyncUpdate{Status: OrderStatusInProgress, StartCount: 120, Remains: 0, Charge: same.Charge}))
}

func TestOrder_ApplySyncUpdate(t *testing.T) {
	o := testOrder(OrderStatusInProgress)
	now := time.Now()

	err := o.ApplySyncUpdate(SyncUpdate{Status: OrderStatusCompleted, StartCount: 120, Remains: 0, Charge: decimal.RequireFromString("1.50")}, now)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.Equal(t, 0, o.Remains)
	require.NotNil(t, o.LastSyncedAt)
	assert.Equal(t, now, *o.LastSyncedAt)
}

func TestOrder_ApplySyncUpdate_TerminalNeverRegressed(t *testing.T) {
	o := testOrder(OrderStatusCompleted)
	err := o.ApplySyncUpdate(SyncUpdate{Status: OrderStatusProcessing}, time.Now())
	require.ErrorIs(t, err, ErrTerminalStatus)
	assert.Equal(t, OrderStatusCompleted, o.Status)
}

func TestOrder_ApplySyncUpdate_ForbiddenTransition(t *testing.T) {
	o := testOrder(OrderStatusPartial)
	err := o.ApplySyncUpdate(SyncUpdate{Status: OrderStatusProcessing}, time.Now())
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusPartial, o.Status)
}

func TestOrder_MarkResent(t *testing.T) {
	o := testOrder(OrderStatusFailed)
	require.NoError(t, o.MarkResent("40001"))
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, "40001", o.ProviderOrderID)
	assert.Equal(t, 0, o.StartCount)
	assert.Equal(t, o.Quantity, o.Remains)
}

func TestOrder_MarkResent_Terminal(t *testing.T) {
	o := testOrder(OrderStatusCancelled)
	require.ErrorIs(t, o.MarkResent("40001"), ErrInvalidTransition)
}

func TestOrder_MarkCancelled(t *testing.T) {
	o := testOrder(OrderStatusInProgress)
	require.NoError(t, o.MarkCancelled())
	assert.Equal(t, OrderStatusCancelled, o.Status)

	done := testOrder(OrderStatusCompleted)
	require.ErrorIs(t, done.MarkCancelled(), ErrTerminalStatus)
}
