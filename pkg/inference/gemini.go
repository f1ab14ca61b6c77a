package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/framelens/internal/httpc"
)

const providerGemini = "gemini"

// Gemini defaults.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	GeminiModel   = "gemini-1.5-flash"
)

// Gemini implements the Provider interface for Google's Gemini API.
// Gemini does not speak the OpenAI wire format, so requests are built directly.
type Gemini struct {
	apiKey string
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = GeminiBaseURL
	cfg.Model = GeminiModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.New(cfg.Timeout)
	}

	return &Gemini{
		apiKey: cfg.APIKey,
		config: cfg,
		http:   hc,
		logger: cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// Name returns the provider label.
func (g *Gemini) Name() string {
	return providerGemini
}

// Vision analyzes an image using Gemini generateContent.
func (g *Gemini) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	start := time.Now()

	if len(req.Image) == 0 {
		return nil, WrapError(providerGemini, ErrNoImage)
	}

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}

	temp := req.Temperature
	if temp == 0 {
		temp = g.config.Temperature
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: req.Prompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeOrDefault(req.MIMEType),
					Data:     EncodeBase64(req.Image),
				}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temp,
			MaxOutputTokens: maxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimSuffix(g.config.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// The key must never be in the URL: *url.Error strings embed it.
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}

	if result.Error.Message != "" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    result.Error.Message,
			Provider:   providerGemini,
		}
	}

	if reason := result.PromptFeedback.BlockReason; reason != "" && len(result.Candidates) == 0 {
		return nil, WrapError(providerGemini, fmt.Errorf("prompt blocked: %s", reason))
	}

	// No candidates or empty parts is a successful call with empty text.
	var text strings.Builder
	var finishReason string
	if len(result.Candidates) > 0 {
		candidate := result.Candidates[0]
		finishReason = candidate.FinishReason
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
	}

	latency := time.Since(start).Milliseconds()
	g.logger.Debug("vision call complete",
		"model", model,
		"latency_ms", latency,
		"finish_reason", finishReason,
		"empty", text.Len() == 0,
	)

	return &VisionResponse{
		Content:      text.String(),
		FinishReason: finishReason,
		Usage: Usage{
			PromptTokens:     result.UsageMetadata.PromptTokenCount,
			CompletionTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      result.UsageMetadata.TotalTokenCount,
		},
		Model:     model,
		LatencyMs: latency,
	}, nil
}

// Capabilities returns Gemini's capabilities.
func (g *Gemini) Capabilities() Capabilities {
	return Capabilities{
		Vision:    true,
		JSONMode:  true,
		MaxImages: 16,
	}
}

// Health checks that the configured model is reachable with the key.
func (g *Gemini) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models/%s", strings.TrimSuffix(g.config.BaseURL, "/"), g.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WrapError(providerGemini, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return WrapError(providerGemini, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Status
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerGemini,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// geminiResponse is the Gemini API response format.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)
