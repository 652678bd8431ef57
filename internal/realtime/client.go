package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ConnState is the stream client's connection state
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateOpen         ConnState = "open"
	StateReconnecting ConnState = "reconnecting"
	StateClosed       ConnState = "closed"
)

// ErrGaveUp is returned when the client exhausts its reconnect attempts.
// Recovery then requires a fresh Run call.
var ErrGaveUp = errors.New("stream client gave up reconnecting")

// maxReconnectAttempts caps consecutive failed connection attempts
const maxReconnectAttempts = 5

// DialFunc opens one stream connection and returns its body
type DialFunc func(ctx context.Context) (io.ReadCloser, error)

// StreamClient maintains exactly one active connection to a push stream
// and self-heals with bounded linear backoff. The connection lifecycle is
// an explicit state machine:
//
//	Connecting -> Open -> (Reconnecting -> Connecting)* -> Closed
//
// A successful open resets the attempt counter to zero.
type StreamClient struct {
	dial      DialFunc
	baseDelay time.Duration
	onEvent   func(Event)
	onState   func(ConnState)
	logger    *zap.Logger
}

// StreamClientOption is a functional option for StreamClient configuration
type StreamClientOption func(*StreamClient)

// WithBaseDelay sets the backoff unit (delay = baseDelay * attempt)
func WithBaseDelay(d time.Duration) StreamClientOption {
	return func(c *StreamClient) {
		c.baseDelay = d
	}
}

// WithOnState registers a state-transition callback
func WithOnState(fn func(ConnState)) StreamClientOption {
	return func(c *StreamClient) {
		c.onState = fn
	}
}

// WithStreamLogger sets the logger
func WithStreamLogger(logger *zap.Logger) StreamClientOption {
	return func(c *StreamClient) {
		c.logger = logger
	}
}

// NewStreamClient creates a client that dials with fn and delivers each
// received event to onEvent
func NewStreamClient(fn DialFunc, onEvent func(Event), opts ...StreamClientOption) *StreamClient {
	c := &StreamClient{
		dial:      fn,
		baseDelay: time.Second,
		onEvent:   onEvent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPDialer dials an SSE endpoint over HTTP
func HTTPDialer(url string, hc *http.Client) DialFunc {
	if hc == nil {
		hc = &http.Client{}
	}
	return func(ctx context.Context) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")
		resp, err := hc.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("stream dial: HTTP %d", resp.StatusCode)
		}
		return resp.Body, nil
	}
}

// Run drives the state machine until the context is cancelled or the
// client gives up. It returns ErrGaveUp after maxReconnectAttempts
// consecutive failures, ctx.Err() on cancellation.
func (c *StreamClient) Run(ctx context.Context) error {
	attempts := 0

	for {
		c.setState(StateConnecting)

		body, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateClosed)
				return ctx.Err()
			}
			attempts++
			if attempts >= maxReconnectAttempts {
				c.logger.Error("stream client exhausted reconnect attempts",
					zap.Int("attempts", attempts))
				c.setState(StateClosed)
				return ErrGaveUp
			}
			c.setState(StateReconnecting)
			delay := c.baseDelay * time.Duration(attempts)
			c.logger.Warn("stream connection failed, reconnecting",
				zap.Int("attempt", attempts),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				c.setState(StateClosed)
				return err
			}
			continue
		}

		c.setState(StateOpen)
		attempts = 0

		readErr := c.consume(ctx, body)
		body.Close()
		if ctx.Err() != nil {
			c.setState(StateClosed)
			return ctx.Err()
		}

		// The connection dropped mid-stream; count it as one failed
		// attempt and walk the reconnect path.
		attempts++
		if attempts >= maxReconnectAttempts {
			c.setState(StateClosed)
			return ErrGaveUp
		}
		c.setState(StateReconnecting)
		delay := c.baseDelay * time.Duration(attempts)
		c.logger.Warn("stream connection lost, reconnecting",
			zap.Int("attempt", attempts),
			zap.Duration("delay", delay),
			zap.Error(readErr),
		)
		if err := sleepCtx(ctx, delay); err != nil {
			c.setState(StateClosed)
			return err
		}
	}
}

// consume reads the stream line by line. Both SSE "data:" framing and
// bare one-JSON-object-per-line payloads are accepted.
func (c *StreamClient) consume(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "id:") || strings.HasPrefix(line, ":") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if line == "" {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			c.logger.Debug("skipping malformed stream line", zap.Error(err))
			continue
		}
		if c.onEvent != nil {
			c.onEvent(event)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (c *StreamClient) setState(s ConnState) {
	if c.onState != nil {
		c.onState(s)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
