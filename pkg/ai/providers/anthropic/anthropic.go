// Package anthropic implements ai.Provider for the Anthropic Messages API
// (streaming via SSE).
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/ai/sse"
	"github.com/thamam/ai-cli/pkg/prompts"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	envAPIKey        = "AETHER_ANTHROPIC_API_KEY"
	providerName     = "anthropic"
	maxTokens        = 4096
)

// Client is the Anthropic provider.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	apiKey     string
	model      string
}

// New creates a Client with an explicit credential.
func New(apiKey, model string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
	}
}

// FromEnv creates a Client with the credential from AETHER_ANTHROPIC_API_KEY.
func FromEnv(model string) (*Client, error) {
	key := os.Getenv(envAPIKey)
	if key == "" {
		return nil, &ai.ConfigurationError{Variable: envAPIKey}
	}
	return New(key, model), nil
}

func (c *Client) ModelName() string { return c.model }

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model     string        `json:"model"`
	Messages  []wireMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Stream    bool          `json:"stream"`
}

// SSE event payload; only content_block_delta events carry text.
type wireEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

type wireResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// buildRequest maps a CompletionRequest onto the Messages schema: the system
// prompt, context files, and history are folded into the system field, and
// the query rides as the single user message.
func (c *Client) buildRequest(req ai.CompletionRequest, stream bool) wireRequest {
	system := []string{req.SystemPrompt}

	if len(req.ContextFiles) > 0 {
		var parts []string
		for _, f := range req.ContextFiles {
			parts = append(parts, fmt.Sprintf("File: %s\n```\n%s\n```", f.Name, f.Content))
		}
		system = append(system, "Context:\n"+strings.Join(parts, "\n\n"))
	}
	if len(req.History) > 0 {
		system = append(system, "Recent shell history:\n"+strings.Join(req.History, "\n"))
	}

	return wireRequest{
		Model:     c.model,
		Messages:  []wireMessage{{Role: "user", Content: req.UserQuery}},
		MaxTokens: maxTokens,
		System:    strings.Join(system, "\n\n"),
		Stream:    stream,
	}
}

func (c *Client) post(ctx context.Context, body wireRequest, accept string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", providerName, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if accept != "" {
		httpReq.Header.Set("Accept", accept)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &ai.ConnectionError{
			Provider: providerName,
			Err:      err,
			Hint:     "Check your internet connection and " + envAPIKey,
		}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &ai.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Hint:       "Check your " + envAPIKey,
		}
	}
	return resp, nil
}

// StreamCompletion implements ai.Provider.
func (c *Client) StreamCompletion(ctx context.Context, req ai.CompletionRequest) (ai.Stream, error) {
	resp, err := c.post(ctx, c.buildRequest(req, true), "text/event-stream")
	if err != nil {
		return nil, err
	}
	dec := sse.NewDecoder(extractDelta)
	return ai.NewBodyStream(providerName, resp.Body, dec, "Check your "+envAPIKey), nil
}

// extractDelta decodes one SSE payload. Non-delta events (message_start,
// ping, content_block_stop, ...) carry no user-visible text and malformed
// ones are skipped; a malformed content_block_delta would corrupt the
// reconstructed answer, so it surfaces as a decode error.
func extractDelta(data string) ([]string, error) {
	var ev wireEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		if strings.Contains(data, `"content_block_delta"`) {
			return nil, &ai.DecodeError{Provider: providerName, Frame: data, Err: err}
		}
		return nil, nil
	}
	if ev.Type != "content_block_delta" || ev.Delta.Text == "" {
		return nil, nil
	}
	return []string{ev.Delta.Text}, nil
}

// GetFixSuggestion implements ai.Provider.
func (c *Client) GetFixSuggestion(ctx context.Context, errorLog string) (string, error) {
	body := wireRequest{
		Model:     c.model,
		Messages:  []wireMessage{{Role: "user", Content: prompts.FixRequest(errorLog)}},
		MaxTokens: maxTokens,
		System:    prompts.SentinelSystemPrompt,
		Stream:    false,
	}
	resp, err := c.post(ctx, body, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ai.DecodeError{Provider: providerName, Err: err}
	}
	if len(parsed.Content) == 0 {
		return ai.NoResponse, nil
	}
	return parsed.Content[0].Text, nil
}
