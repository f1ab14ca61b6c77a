package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// VisionFunc is called when Vision is invoked.
	VisionFunc func(ctx context.Context, req *VisionRequest) (*VisionResponse, error)

	// HealthFunc is called when Health is invoked.
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu       sync.Mutex
	calls    []MockCall
	requests []VisionRequest
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock provider that answers every Vision call with content.
func NewMock(content string) *Mock {
	return &Mock{
		VisionFunc: func(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
			return &VisionResponse{
				Content: content,
				Model:   "mock",
				Usage:   Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
			}, nil
		},
		HealthFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// WithError returns a mock whose Vision and Health calls always fail with err.
func WithError(err error) *Mock {
	return &Mock{
		VisionFunc: func(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Name returns the provider label.
func (m *Mock) Name() string {
	return "mock"
}

// Vision calls VisionFunc and records the call and its request.
func (m *Mock) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	m.record("Vision")
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	if m.VisionFunc != nil {
		return m.VisionFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrEmptyResponse)
}

// Capabilities returns mock capabilities.
func (m *Mock) Capabilities() Capabilities {
	return Capabilities{
		Vision:    m.VisionFunc != nil,
		MaxImages: 1,
	}
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// record adds a call to the tracking list.
func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastRequest returns the most recent Vision request, or nil if none.
func (m *Mock) LastRequest() *VisionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.requests = nil
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
