package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge publishes sync events to a Redis Pub/Sub channel and feeds
// received events into the local hub, so every instance of the service
// fans out the same reconciliation stream.
type Bridge struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	hub        *Hub
	logger     *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// BridgeOption is a functional option for Bridge configuration
type BridgeOption func(*Bridge)

// WithBridgeChannel sets the Pub/Sub channel name
func WithBridgeChannel(channel string) BridgeOption {
	return func(b *Bridge) {
		b.channel = channel
	}
}

// WithBridgeLogger sets the logger
func WithBridgeLogger(logger *zap.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge connects to Redis and creates a bridge feeding the given hub
func NewBridge(addr, password string, db int, hub *Hub, opts ...BridgeOption) (*Bridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b := &Bridge{
		client:     client,
		ownsClient: true,
		channel:    "smm:sync:events",
		hub:        hub,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewBridgeWithClient creates a bridge with an existing Redis client.
// The caller retains ownership of the client.
func NewBridgeWithClient(client *redis.Client, hub *Hub, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		client:  client,
		channel: "smm:sync:events",
		hub:     hub,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Broadcast publishes an event to the channel. Local delivery happens
// when the subscription loop receives it back.
func (b *Bridge) Broadcast(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		b.logger.Error("failed to marshal sync event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish sync event, delivering locally",
			zap.String("channel", b.channel),
			zap.Error(err))
		// Degrade to in-process delivery so local subscribers still see it.
		b.hub.Broadcast(e)
	}
}

// Start begins the subscription loop feeding the hub
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.running = true

	pubsub := b.client.Subscribe(ctx, b.channel)
	go b.receiveLoop(ctx, pubsub)

	b.logger.Info("sync event bridge started", zap.String("channel", b.channel))
	return nil
}

// Stop stops the subscription loop and closes an owned client
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	b.cancel()
	b.running = false

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

func (b *Bridge) receiveLoop(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("dropping malformed sync event", zap.Error(err))
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}
