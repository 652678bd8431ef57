package dto

import "net/http"

// Error code constants returned in the response envelope
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeConcurrencyConflict is used when a concurrent write wins
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodeInvalidState is used when an operation is invalid for the current state
	ErrCodeInvalidState = "INVALID_STATE"

	// ErrCodeProviderFetchFailed is used when both request verbs against a
	// provider failed after retries
	ErrCodeProviderFetchFailed = "PROVIDER_FETCH_FAILED"
	// ErrCodeProviderUnreachable is used when a reachability probe fails
	ErrCodeProviderUnreachable = "PROVIDER_UNREACHABLE"
	// ErrCodeSyncInProgress is used when a reconciliation run is already running
	ErrCodeSyncInProgress = "SYNC_IN_PROGRESS"
	// ErrCodeSyncDisabled is used when the scheduler is not running
	ErrCodeSyncDisabled = "SYNC_DISABLED"
	// ErrCodeNotResendable is used when resend is requested for a non-failed order
	ErrCodeNotResendable = "ORDER_NOT_RESENDABLE"
	// ErrCodeMaxConnections is used when the stream refuses new subscribers
	ErrCodeMaxConnections = "MAX_CONNECTIONS_REACHED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeProviderFetchFailed: http.StatusInternalServerError,
	ErrCodeProviderUnreachable: http.StatusBadGateway,
	ErrCodeSyncInProgress:      http.StatusConflict,
	ErrCodeSyncDisabled:        http.StatusServiceUnavailable,
	ErrCodeNotResendable:       http.StatusUnprocessableEntity,
	ErrCodeMaxConnections:      http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
