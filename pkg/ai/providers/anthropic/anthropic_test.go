package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/ai/providers/anthropic"
)

func newTestClient(url string) *anthropic.Client {
	c := anthropic.New("test-key", "claude-test")
	c.BaseURL = url
	return c
}

func collect(t *testing.T, s ai.Stream) string {
	t.Helper()
	var b strings.Builder
	for {
		frag, err := s.Next()
		if errors.Is(err, io.EOF) {
			return b.String()
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		b.WriteString(frag)
	}
}

func TestStreamCompletion(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: message_start\n")
		io.WriteString(w, "data: {\"type\":\"message_start\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"ls\"}}\n\n")
		io.WriteString(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\" -la\"}}\n\n")
		io.WriteString(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	stream, err := c.StreamCompletion(context.Background(), ai.CompletionRequest{
		SystemPrompt: "you are a shell assistant",
		UserQuery:    "list files",
		ContextFiles: []ai.ContextFile{{Name: "main.go", Content: "package main"}},
		History:      []string{"cd /tmp"},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer stream.Close()

	if got := collect(t, stream); got != "ls -la" {
		t.Errorf("streamed text = %q, want %q", got, "ls -la")
	}

	if gotReq["stream"] != true {
		t.Error("request did not set stream: true")
	}
	system, _ := gotReq["system"].(string)
	for _, want := range []string{"shell assistant", "main.go", "cd /tmp"} {
		if !strings.Contains(system, want) {
			t.Errorf("system field missing %q:\n%s", want, system)
		}
	}
	msgs, _ := gotReq["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v, want single user message", msgs)
	}
	msg := msgs[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "list files" {
		t.Errorf("user message = %v", msg)
	}
}

func TestStreamCompletion_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"type":"authentication_error"}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.StreamCompletion(context.Background(), ai.CompletionRequest{UserQuery: "q"})
	var perr *ai.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ai.ProviderError", err)
	}
	if perr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", perr.StatusCode)
	}
	if !strings.Contains(perr.Body, "authentication_error") {
		t.Errorf("body not preserved: %q", perr.Body)
	}
}

func TestStreamCompletion_ConnectionError(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	_, err := c.StreamCompletion(context.Background(), ai.CompletionRequest{UserQuery: "q"})
	var cerr *ai.ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *ai.ConnectionError", err)
	}
	if !strings.Contains(err.Error(), "AETHER_ANTHROPIC_API_KEY") {
		t.Errorf("hint missing from error: %v", err)
	}
}

func TestStreamCompletion_MalformedDelta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\n\n")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	stream, err := c.StreamCompletion(context.Background(), ai.CompletionRequest{UserQuery: "q"})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer stream.Close()

	_, err = stream.Next()
	var derr *ai.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *ai.DecodeError", err)
	}
}

func TestGetFixSuggestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["stream"] != false {
			t.Error("fix suggestion request must not stream")
		}
		if sys, _ := req["system"].(string); !strings.Contains(sys, "Sentinel") {
			t.Errorf("system prompt = %q, want sentinel prompt", sys)
		}
		io.WriteString(w, `{"content":[{"type":"text","text":"try sudo"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GetFixSuggestion(context.Background(), "permission denied")
	if err != nil {
		t.Fatalf("GetFixSuggestion: %v", err)
	}
	if got != "try sudo" {
		t.Errorf("suggestion = %q", got)
	}
}

func TestGetFixSuggestion_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GetFixSuggestion(context.Background(), "boom")
	if err != nil {
		t.Fatalf("GetFixSuggestion: %v", err)
	}
	if got != ai.NoResponse {
		t.Errorf("suggestion = %q, want %q", got, ai.NoResponse)
	}
}

func TestFromEnv_MissingKey(t *testing.T) {
	t.Setenv("AETHER_ANTHROPIC_API_KEY", "")
	_, err := anthropic.FromEnv("claude-test")
	var cerr *ai.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *ai.ConfigurationError", err)
	}
	if cerr.Variable != "AETHER_ANTHROPIC_API_KEY" {
		t.Errorf("variable = %q", cerr.Variable)
	}
}

func TestFromEnv_WithKey(t *testing.T) {
	t.Setenv("AETHER_ANTHROPIC_API_KEY", "k")
	c, err := anthropic.FromEnv("claude-test")
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.ModelName() != "claude-test" {
		t.Errorf("model = %q", c.ModelName())
	}
}
