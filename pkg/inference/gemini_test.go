package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiVision(t *testing.T) {
	image := []byte("\x89PNG\r\n\x1a\nfake")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "" {
			t.Error("API key must not be sent in the query string")
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("Expected x-goog-api-key test-key, got %q", got)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("Expected prompt and image parts, got %d", len(parts))
		}
		if parts[0].Text != "Describe this" {
			t.Errorf("Unexpected prompt part %q", parts[0].Text)
		}
		if parts[1].InlineData.MimeType != "image/webp" {
			t.Errorf("Expected declared mime image/webp, got %s", parts[1].InlineData.MimeType)
		}
		decoded, _ := base64.StdEncoding.DecodeString(parts[1].InlineData.Data)
		if string(decoded) != string(image) {
			t.Error("Image bytes did not round-trip")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "Here you go: "}, {"text": "{\"objects\":[\"car\"]}"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 258, "candidatesTokenCount": 12, "totalTokenCount": 270}
		}`))
	}))
	defer server.Close()

	g, err := NewGemini(WithBaseURL(server.URL), WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	defer g.Close()

	resp, err := g.Vision(context.Background(), &VisionRequest{
		Image:    image,
		MIMEType: "image/webp",
		Prompt:   "Describe this",
	})
	if err != nil {
		t.Fatalf("Vision failed: %v", err)
	}

	if resp.Content != `Here you go: {"objects":["car"]}` {
		t.Errorf("Unexpected content %q", resp.Content)
	}
	if resp.FinishReason != "STOP" {
		t.Errorf("Expected STOP, got %s", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 270 {
		t.Errorf("Expected 270 tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.Model != GeminiModel {
		t.Errorf("Expected model %s, got %s", GeminiModel, resp.Model)
	}
}

func TestGeminiDefaultsMIMEType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if got := req.Contents[0].Parts[1].InlineData.MimeType; got != "image/png" {
			t.Errorf("Expected image/png default, got %s", got)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithBaseURL(server.URL), WithAPIKey("k"))
	if _, err := g.Vision(context.Background(), &VisionRequest{Image: []byte{1}}); err != nil {
		t.Fatalf("Vision failed: %v", err)
	}
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGemini()
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
}

func TestGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithBaseURL(server.URL), WithAPIKey("bad"))
	_, err := g.Vision(context.Background(), &VisionRequest{Image: []byte{1}})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "API key not valid." {
		t.Errorf("Unexpected message %q", apiErr.Message)
	}
	if apiErr.Code != "INVALID_ARGUMENT" {
		t.Errorf("Unexpected code %q", apiErr.Code)
	}
	if strings.Contains(err.Error(), "bad") {
		t.Error("Error string must not leak the API key")
	}
}

func TestGeminiEmptyResponse(t *testing.T) {
	replies := []string{
		`{"candidates":[]}`,
		`{}`,
		`{"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"STOP"}]}`,
		`{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`,
	}
	for _, reply := range replies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(reply))
		}))

		g, _ := NewGemini(WithBaseURL(server.URL), WithAPIKey("k"))
		resp, err := g.Vision(context.Background(), &VisionRequest{Image: []byte{1}})
		server.Close()

		if err != nil {
			t.Errorf("%s: empty reply must not be an error, got %v", reply, err)
			continue
		}
		if resp.Content != "" {
			t.Errorf("%s: expected empty content, got %q", reply, resp.Content)
		}
	}
}

func TestGeminiOmitsGenerationCaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := body["generationConfig"]["maxOutputTokens"]; ok {
			t.Error("maxOutputTokens must be omitted by default")
		}
		if _, ok := body["generationConfig"]["temperature"]; ok {
			t.Error("temperature must be omitted by default")
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithBaseURL(server.URL), WithAPIKey("k"))
	if _, err := g.Vision(context.Background(), &VisionRequest{Image: []byte{1}}); err != nil {
		t.Fatalf("Vision failed: %v", err)
	}
}

func TestGeminiBlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithBaseURL(server.URL), WithAPIKey("k"))
	_, err := g.Vision(context.Background(), &VisionRequest{Image: []byte{1}})
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("Expected blocked prompt error, got %v", err)
	}
}

func TestGeminiHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/models/gemini-1.5-flash" {
			t.Errorf("Unexpected health request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"name":"models/gemini-1.5-flash"}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithBaseURL(server.URL), WithAPIKey("k"))
	if err := g.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}
