package inference

import (
	"fmt"
	"strings"
)

// New creates the provider registered under name ("gemini" or "openai").
func New(name string, opts ...Option) (Provider, error) {
	switch strings.ToLower(name) {
	case "", providerGemini:
		return NewGemini(opts...)
	case providerClient:
		return NewClient(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
