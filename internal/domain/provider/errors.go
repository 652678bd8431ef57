package provider

import "errors"

var (
	// ErrProviderNotConfigured is returned when a provider record is missing required fields
	ErrProviderNotConfigured = errors.New("provider is not configured")

	// ErrFetchFailed is returned when both request shapes and all retries against a provider are exhausted
	ErrFetchFailed = errors.New("failed to fetch from provider")

	// ErrUnparseableResponse is returned when a provider payload cannot be normalized
	ErrUnparseableResponse = errors.New("unparseable provider response")

	// ErrNoServiceTypes is returned when the internal service-type taxonomy is empty.
	// This is fatal for an import run: there is no target taxonomy to map into.
	ErrNoServiceTypes = errors.New("no internal service types configured")

	// ErrMissingExchangeRate is returned when a provider prices in a foreign
	// currency but carries no exchange rate for it
	ErrMissingExchangeRate = errors.New("no exchange rate for provider currency")

	// ErrTerminalStatus is returned when a sync update would overwrite a terminal order status
	ErrTerminalStatus = errors.New("order is in a terminal status")

	// ErrInvalidTransition is returned for order status transitions the state machine forbids
	ErrInvalidTransition = errors.New("invalid order status transition")
)
