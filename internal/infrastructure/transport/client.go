package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// DefaultTimeout is the wall-clock timeout for catalog and status calls
const DefaultTimeout = 30 * time.Second

// ErrorKind classifies a failed outbound call
type ErrorKind string

const (
	ErrorKindTimeout ErrorKind = "timeout"
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindStatus  ErrorKind = "status"
)

// TransportError is the classified outcome of a failed HTTP call
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	switch e.Kind {
	case ErrorKindStatus:
		return fmt.Sprintf("transport: HTTP %d", e.StatusCode)
	case ErrorKindTimeout:
		return "transport: request timed out"
	default:
		return fmt.Sprintf("transport: %v", e.Err)
	}
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a classified transport failure
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Request is a ready-to-send request template. Form is sent as an
// x-www-form-urlencoded body for POST and as the query string for GET.
type Request struct {
	Method  string
	URL     string
	Form    url.Values
	Headers map[string]string
	// Timeout overrides the client default for this call (e.g. probes).
	Timeout time.Duration
}

// Client issues a single HTTP call with a bounded timeout and classifies
// the outcome. No retry logic lives here.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithTimeout sets the default per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying http.Client (used by tests)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a transport client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send issues the request and returns the raw body. The in-flight request
// is cancelled when the timeout expires, never left to complete in the
// background. The body is returned untouched: interpretation belongs to
// the caller.
func (c *Client) Send(ctx context.Context, req *Request) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		kind := ErrorKindNetwork
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			kind = ErrorKindTimeout
		}
		c.logger.Debug("outbound call failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &TransportError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Kind: ErrorKindNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Kind:       ErrorKindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return body, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	var httpReq *http.Request
	var err error

	switch strings.ToUpper(req.Method) {
	case http.MethodGet:
		target := req.URL
		if len(req.Form) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target = target + sep + req.Form.Encode()
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	default:
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, req.URL,
			bytes.NewBufferString(req.Form.Encode()))
		if httpReq != nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
