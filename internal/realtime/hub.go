package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMaxClients is returned when the hub refuses a new subscriber
var ErrMaxClients = errors.New("maximum number of stream clients reached")

// Subscriber is one connected stream client. Events arrive on C; the hub
// closes Done when it shuts down.
type Subscriber struct {
	ID   string
	C    chan Event
	Done chan struct{}
}

// Hub holds open subscriber connections and pushes events to all of them.
// Delivery to each subscriber is independent: a slow or dead subscriber
// has its events dropped rather than blocking the others or the producer.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber

	heartbeat  time.Duration
	buffer     int
	maxClients int
	logger     *zap.Logger

	startMu sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// HubOption is a functional option for Hub configuration
type HubOption func(*Hub)

// WithHeartbeat sets the keep-alive ping interval
func WithHeartbeat(d time.Duration) HubOption {
	return func(h *Hub) {
		h.heartbeat = d
	}
}

// WithClientBuffer sets the per-subscriber channel buffer
func WithClientBuffer(n int) HubOption {
	return func(h *Hub) {
		h.buffer = n
	}
}

// WithMaxClients caps concurrent subscribers
func WithMaxClients(n int) HubOption {
	return func(h *Hub) {
		h.maxClients = n
	}
}

// WithHubLogger sets the logger
func WithHubLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates a fan-out hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:       make(map[string]*Subscriber),
		heartbeat:  30 * time.Second,
		buffer:     100,
		maxClients: 1000,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start begins the keep-alive ping loop
func (h *Hub) Start(ctx context.Context) {
	h.startMu.Lock()
	defer h.startMu.Unlock()
	if h.started {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.started = true

	go h.pingLoop(ctx)
	h.logger.Info("stream hub started", zap.Duration("heartbeat", h.heartbeat))
}

// Stop disconnects all subscribers and stops the ping loop
func (h *Hub) Stop() {
	h.startMu.Lock()
	defer h.startMu.Unlock()
	if !h.started {
		return
	}
	h.cancel()
	h.started = false

	h.mu.Lock()
	for id, sub := range h.subs {
		close(sub.Done)
		delete(h.subs, id)
	}
	h.mu.Unlock()

	h.logger.Info("stream hub stopped")
}

// Subscribe registers a new stream client
func (h *Hub) Subscribe() (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxClients > 0 && len(h.subs) >= h.maxClients {
		return nil, ErrMaxClients
	}

	sub := &Subscriber{
		ID:   uuid.New().String(),
		C:    make(chan Event, h.buffer),
		Done: make(chan struct{}),
	}
	h.subs[sub.ID] = sub

	h.logger.Debug("stream client subscribed",
		zap.String("client_id", sub.ID),
		zap.Int("clients", len(h.subs)),
	)
	return sub, nil
}

// Unsubscribe removes a stream client
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.Done)
	}
	h.mu.Unlock()
}

// Broadcast delivers an event to every subscriber without blocking. A
// full subscriber channel drops the event for that subscriber only.
func (h *Hub) Broadcast(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.C <- e:
		default:
			h.logger.Warn("stream client channel full, dropping event",
				zap.String("client_id", sub.ID),
				zap.String("event_type", string(e.Type)),
			)
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast(NewEvent(EventPing))
		}
	}
}
