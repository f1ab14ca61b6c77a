package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestClientVision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected Bearer test-key, got %s", auth)
		}

		var reqBody struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []map[string]interface{} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if reqBody.Model != "gpt-4o" {
			t.Errorf("Expected model gpt-4o, got %s", reqBody.Model)
		}
		parts := reqBody.Messages[0].Content
		if len(parts) != 2 {
			t.Fatalf("Expected text and image parts, got %d", len(parts))
		}
		imageURL := parts[1]["image_url"].(map[string]interface{})["url"].(string)
		if !strings.HasPrefix(imageURL, "data:image/jpeg;base64,") {
			t.Errorf("Expected jpeg data URI, got %s", imageURL)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "test-id",
			"model": "gpt-4o",
			"choices": []map[string]interface{}{{
				"message":       map[string]interface{}{"role": "assistant", "content": `{"sceneDescription":"A desk."}`},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	defer server.Close()

	client, err := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithModel("gpt-4o"),
	)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	resp, err := client.Vision(context.Background(), &VisionRequest{
		Image:    []byte{0xff, 0xd8, 0xff},
		MIMEType: "image/jpeg",
		Prompt:   "Describe",
	})
	if err != nil {
		t.Fatalf("Vision failed: %v", err)
	}

	if resp.Content != `{"sceneDescription":"A desk."}` {
		t.Errorf("Unexpected content: %s", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish_reason 'stop', got %s", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("Expected 15 tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestClientVisionRequiresImage(t *testing.T) {
	client, _ := NewClient(WithBaseURL("http://127.0.0.1:1"))
	defer client.Close()

	_, err := client.Vision(context.Background(), &VisionRequest{Prompt: "x"})
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
}

func TestClientDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL))
	defer client.Close()

	_, err := client.Vision(context.Background(), &VisionRequest{Image: []byte{1}})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if !apiErr.IsServerError() {
		t.Error("Expected IsServerError() to be true")
	}
	if hits.Load() != 1 {
		t.Errorf("Expected exactly one upstream call, got %d", hits.Load())
	}
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("Expected /models, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []interface{}{},
		})
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL))
	defer client.Close()

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health check failed: %v", err)
	}
}

func TestClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Invalid API key",
				"code":    "invalid_api_key",
			},
		})
	}))
	defer server.Close()

	client, _ := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("bad-key"),
	)
	defer client.Close()

	_, err := client.Vision(context.Background(), &VisionRequest{Image: []byte{1}})
	if err == nil {
		t.Fatal("Expected error")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.StatusCode != 401 {
		t.Errorf("Expected 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "invalid_api_key" {
		t.Errorf("Expected invalid_api_key, got %s", apiErr.Code)
	}
	if !apiErr.IsUnauthorized() {
		t.Error("Expected IsUnauthorized() to be true")
	}
}

func TestClientNoAPIKey(t *testing.T) {
	// Local providers like Ollama run without a key.
	client, err := NewClient(WithBaseURL("http://localhost:11434/v1"))
	if err != nil {
		t.Fatalf("Should allow creation without API key: %v", err)
	}
	if !client.Capabilities().Vision {
		t.Error("Expected Vision capability")
	}
	client.Close()
}

func TestClientEmptyResponse(t *testing.T) {
	replies := []string{
		`{"choices":[]}`,
		`{"choices":[{"message":{"role":"assistant","content":""},"finish_reason":"length"}]}`,
	}
	for _, reply := range replies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			if _, ok := body["max_tokens"]; ok {
				t.Error("max_tokens must be omitted by default")
			}
			w.Write([]byte(reply))
		}))

		client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("k"))
		resp, err := client.Vision(context.Background(), &VisionRequest{Image: []byte{1}})
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
