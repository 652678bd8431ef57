package dto

import "time"

// SyncRunResponse reports the outcome of one reconciliation run
type SyncRunResponse struct {
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
	Total     int       `json:"total"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Error     string    `json:"error,omitempty"`
}

// ProviderStatusResponse reports a reachability probe result
type ProviderStatusResponse struct {
	Provider  string `json:"provider"`
	Reachable bool   `json:"reachable"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// OrderResponse is the order view returned by the control endpoints
type OrderResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Quantity        int    `json:"quantity"`
	StartCount      int    `json:"startCount"`
	Remains         int    `json:"remains"`
	Charge          string `json:"charge"`
	ProviderOrderID string `json:"providerOrderId"`
	Link            string `json:"link"`
}
