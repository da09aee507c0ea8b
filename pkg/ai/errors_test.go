package ai_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/thamam/ai-cli/pkg/ai"
)

func TestConnectionError_IncludesHint(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ai.ConnectionError{Provider: "ollama", Err: cause, Hint: "Is the Ollama server running at http://localhost:11434?"}
	msg := err.Error()
	if !strings.Contains(msg, "ollama") || !strings.Contains(msg, "refused") || !strings.Contains(msg, "Is the Ollama server running") {
		t.Errorf("message missing parts: %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("does not unwrap to cause")
	}
}

func TestProviderError_PreservesStatusAndBody(t *testing.T) {
	err := &ai.ProviderError{Provider: "openai", StatusCode: 401, Body: `{"error":"invalid_api_key"}`, Hint: "Check your AETHER_OPENAI_API_KEY"}
	msg := err.Error()
	for _, want := range []string{"openai", "401", "invalid_api_key", "AETHER_OPENAI_API_KEY"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestDecodeError_TruncatesLongFrames(t *testing.T) {
	err := &ai.DecodeError{Provider: "gemini", Frame: strings.Repeat("x", 500)}
	msg := err.Error()
	if !strings.Contains(msg, "...") {
		t.Errorf("long frame not truncated: %d bytes", len(msg))
	}
	if strings.Contains(msg, strings.Repeat("x", 201)) {
		t.Error("frame exceeds truncation limit")
	}
}

func TestConfigurationError_NamesVariable(t *testing.T) {
	err := &ai.ConfigurationError{Variable: "AETHER_ANTHROPIC_API_KEY"}
	if got := err.Error(); got != "AETHER_ANTHROPIC_API_KEY not set" {
		t.Errorf("message = %q", got)
	}
}
