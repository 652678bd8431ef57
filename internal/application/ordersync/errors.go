package ordersync

import "errors"

var (
	// ErrSyncInProgress is returned when a manual trigger collides with a running reconciliation
	ErrSyncInProgress = errors.New("order sync already in progress")

	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("order sync scheduler is not running")

	// ErrNotResendable is returned when resending an order the state machine forbids resending
	ErrNotResendable = errors.New("order cannot be resent in its current status")
)
