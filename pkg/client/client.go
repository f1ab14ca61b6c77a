// Package client calls the framelens proxy from a capture front end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teslashibe/framelens/internal/httpc"
	"github.com/teslashibe/framelens/pkg/analysis"
)

// DefaultTimeout bounds one analysis round trip. It exceeds the proxy's
// own inference timeout so the proxy reports upstream timeouts itself.
const DefaultTimeout = 90 * time.Second

// ErrAnalysisInProgress is returned when Analyze is called while another
// call on the same Client is still pending.
var ErrAnalysisInProgress = errors.New("client: analysis already in progress")

// ServerError is a non-200 response from the proxy.
type ServerError struct {
	StatusCode int
	Message    string
	Details    string
}

// Error implements the error interface. It reads as a message for display.
func (e *ServerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

// Client posts frames to the proxy. At most one analysis runs at a time.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	busy    atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = httpc.New(d) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the proxy at baseURL (e.g. "http://localhost:5000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpc.New(DefaultTimeout),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "client")
	return c
}

// Busy reports whether an analysis is pending.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// Analyze sends one image to the proxy. image is a data URI or raw base64;
// mimeType may be empty. Overlapping calls fail with ErrAnalysisInProgress.
func (c *Client) Analyze(ctx context.Context, image, mimeType string) (analysis.Result, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return analysis.Result{}, ErrAnalysisInProgress
	}
	defer c.busy.Store(false)

	body, err := json.Marshal(analysis.Request{Image: image, MIMEType: mimeType})
	if err != nil {
		return analysis.Result{}, fmt.Errorf("client: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-image", bytes.NewReader(body))
	if err != nil {
		return analysis.Result{}, fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return analysis.Result{}, fmt.Errorf("client: read response: %w", err)
	}

	c.logger.Debug("analysis response",
		"status", resp.StatusCode,
		"request_id", resp.Header.Get("X-Request-ID"),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return analysis.Result{}, parseServerError(resp.StatusCode, raw)
	}

	var result analysis.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return analysis.Result{}, fmt.Errorf("client: decode response: %w", err)
	}
	return result, nil
}

func parseServerError(status int, raw []byte) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return &ServerError{StatusCode: status, Message: body.Error, Details: body.Details}
	}
	return &ServerError{
		StatusCode: status,
		Message:    fmt.Sprintf("Request failed with status code %d", status),
	}
}
