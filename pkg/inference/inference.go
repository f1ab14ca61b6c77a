// Package inference provides a unified interface for multimodal vision inference.
//
// The package hides the wire format of each backend behind a single Provider
// interface, so the proxy can switch between Google's Gemini API and any
// OpenAI-compatible endpoint (OpenAI, Ollama, vLLM, ...) by configuration.
//
// Example usage:
//
//	provider, _ := inference.NewGemini(
//	    inference.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	)
//	defer provider.Close()
//
//	resp, _ := provider.Vision(ctx, &inference.VisionRequest{
//	    Image:    pngBytes,
//	    MIMEType: "image/png",
//	    Prompt:   "What do you see?",
//	})
//
// Providers hold no per-request state and are safe for concurrent use.
package inference

import "context"

// Provider is the unified inference interface.
type Provider interface {
	// Name returns a short provider label used in logs and health output.
	Name() string

	// Vision analyzes an image with a text prompt.
	Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error)

	// Capabilities returns what features this provider supports.
	Capabilities() Capabilities

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Capabilities describes what features a provider supports.
type Capabilities struct {
	Vision    bool // Supports image input
	JSONMode  bool // Can be asked for a JSON-only response
	MaxImages int  // Images accepted per request
}

// VisionRequest for image analysis.
type VisionRequest struct {
	// Image holds the encoded image bytes (PNG, JPEG, WebP...).
	Image []byte

	// MIMEType declares the encoding of Image. Empty means "image/png".
	MIMEType string

	// Prompt describing what to analyze or ask about the image.
	Prompt string

	// Model overrides the default vision model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64
}

// VisionResponse from image analysis.
type VisionResponse struct {
	// Content is the raw text the model returned. It is not guaranteed to
	// be valid JSON even when JSON was requested.
	Content string

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for analysis.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
