package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/framelens/pkg/inference"
)

// InferenceError wraps a failed call to the inference provider.
type InferenceError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("analysis: inference via %s failed: %v", e.Provider, e.Err)
}

// Unwrap returns the provider error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Observer receives analysis events. pkg/metrics implements it.
type Observer interface {
	// InferenceDone is called after every provider call.
	InferenceDone(provider string, d time.Duration, err error)

	// Normalized is called for every reply turned into a Result.
	Normalized(fallback bool)
}

// Analyzer runs the full analysis pipeline against one provider.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	provider inference.Provider
	prompt   string
	logger   *slog.Logger
	observer Observer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithObserver registers an observer for inference and normalization events.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) { a.observer = o }
}

// WithPrompt replaces the instruction sent with each image.
func WithPrompt(p string) Option {
	return func(a *Analyzer) { a.prompt = p }
}

// NewAnalyzer creates an analyzer using provider for inference.
func NewAnalyzer(provider inference.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		prompt:   Prompt,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "analysis")
	return a
}

// Provider returns the name of the underlying inference provider.
func (a *Analyzer) Provider() string {
	return a.provider.Name()
}

// Health checks that the inference provider is reachable.
func (a *Analyzer) Health(ctx context.Context) error {
	return a.provider.Health(ctx)
}

// Analyze decodes the request image, calls the provider exactly once and
// normalizes the reply.
//
// Errors are ErrNoImage, ErrInvalidImage or *InferenceError. A reply that
// is not valid JSON is not an error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	if req.Image == "" {
		return Result{}, ErrNoImage
	}

	_, uriMIME := StripDataURI(req.Image)
	data, err := DecodeImage(req.Image)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	mimeType := DetectMIMEType(req.MIMEType, uriMIME, data)

	start := time.Now()
	resp, err := a.provider.Vision(ctx, &inference.VisionRequest{
		Image:    data,
		MIMEType: mimeType,
		Prompt:   a.prompt,
	})
	elapsed := time.Since(start)
	if a.observer != nil {
		a.observer.InferenceDone(a.provider.Name(), elapsed, err)
	}
	if err != nil {
		return Result{}, &InferenceError{Provider: a.provider.Name(), Err: err}
	}

	candidate, fallback := Parse(resp.Content)
	if fallback {
		a.logger.Warn("reply held no usable JSON, using fallback",
			"provider", a.provider.Name(),
			"reply_len", len(resp.Content),
		)
	}
	if a.observer != nil {
		a.observer.Normalized(fallback)
	}

	result := Sanitize(candidate)
	a.logger.Debug("analysis complete",
		"mime", mimeType,
		"bytes", len(data),
		"objects", len(result.Objects),
		"confidence", result.Confidence,
		"latency_ms", elapsed.Milliseconds(),
	)
	return result, nil
}
