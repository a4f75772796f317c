// ABOUTME: Tests for the chat client against a fake OpenAI-compatible server
// ABOUTME: Covers success, retry on transient failure, permanent errors, and empty replies
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeServer struct {
	calls    atomic.Int32
	mu       sync.Mutex
	lastBody map[string]interface{}
	handler  func(n int32, w http.ResponseWriter)
}

func (f *fakeServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastBody = body
		f.mu.Unlock()
		n := f.calls.Add(1)
		f.handler(n, w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "test_error",
		},
	})
}

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = url
	cfg.Model = "test-model"
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = retries
	cfg.RetryDelay = time.Millisecond

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(DefaultConfig("")); err == nil {
		t.Error("NewClient() should fail without API key")
	}
}

func TestNewClient_RequiresTimeout(t *testing.T) {
	cfg := DefaultConfig("key")
	cfg.Timeout = 0
	if _, err := NewClient(cfg); err == nil {
		t.Error("NewClient() should reject a zero timeout")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("key")
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %s, want %s", cfg.Model, DefaultModel)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.MaxTokens != 4000 {
		t.Errorf("MaxTokens = %d, want 4000", cfg.MaxTokens)
	}
}

func TestGenerate_Success(t *testing.T) {
	fake := &fakeServer{handler: func(_ int32, w http.ResponseWriter) {
		writeCompletion(w, "## Process overview")
	}}
	srv := fake.start(t)
	client := newTestClient(t, srv.URL, 0)

	got, err := client.Generate(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "## Process overview" {
		t.Errorf("Generate() = %q", got)
	}

	fake.mu.Lock()
	body := fake.lastBody
	fake.mu.Unlock()

	if body["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", body["model"])
	}
	messages, ok := body["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", body["messages"])
	}
	first := messages[0].(map[string]interface{})
	if first["role"] != "system" || first["content"] != "system text" {
		t.Errorf("first message = %v", first)
	}
}

func TestGenerate_RetriesTransientFailure(t *testing.T) {
	fake := &fakeServer{handler: func(n int32, w http.ResponseWriter) {
		if n == 1 {
			writeAPIError(w, http.StatusServiceUnavailable, "overloaded")
			return
		}
		writeCompletion(w, "recovered")
	}}
	srv := fake.start(t)
	client := newTestClient(t, srv.URL, 2)

	got, err := client.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Generate() = %q, want recovered", got)
	}
	if fake.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", fake.calls.Load())
	}
}

func TestGenerate_DoesNotRetryPermanentFailure(t *testing.T) {
	fake := &fakeServer{handler: func(_ int32, w http.ResponseWriter) {
		writeAPIError(w, http.StatusUnauthorized, "bad key")
	}}
	srv := fake.start(t)
	client := newTestClient(t, srv.URL, 3)

	_, err := client.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() should fail on 401")
	}
	if fake.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", fake.calls.Load())
	}
}

func TestGenerate_EmptyContentIsAnError(t *testing.T) {
	fake := &fakeServer{handler: func(_ int32, w http.ResponseWriter) {
		writeCompletion(w, "   ")
	}}
	srv := fake.start(t)
	client := newTestClient(t, srv.URL, 1)

	_, err := client.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate() should fail on empty content")
	}
	if !strings.Contains(err.Error(), "empty completion content") {
		t.Errorf("error = %v", err)
	}
	if fake.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", fake.calls.Load())
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	fake := &fakeServer{handler: func(_ int32, w http.ResponseWriter) {
		writeCompletion(w, "too late")
	}}
	srv := fake.start(t)
	client := newTestClient(t, srv.URL, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Generate(ctx, "s", "u"); err == nil {
		t.Fatal("Generate() should fail with cancelled context")
	}
	if fake.calls.Load() > 1 {
		t.Errorf("calls = %d, want at most 1", fake.calls.Load())
	}
}
