// Package ollama implements ai.Provider for a local Ollama server's
// /api/chat endpoint. Responses stream as line-delimited JSON; no credential
// is required. The "done" field on each line is informational — the
// authoritative end-of-stream signal is the server closing the connection.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/ai/ndjson"
	"github.com/thamam/ai-cli/pkg/prompts"
)

const providerName = "ollama"

// DefaultBaseURL is the stock Ollama listen address.
const DefaultBaseURL = "http://localhost:11434"

// Client is the local Ollama provider.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	model      string
}

// New creates a Client for the server at baseURL (DefaultBaseURL if empty).
func New(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{},
		model:      model,
	}
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
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`
}

// buildMessages maps a CompletionRequest onto the chat schema the same way
// the OpenAI adapter does: system prompt first, then context and history as
// system messages, then the user query.
func buildMessages(req ai.CompletionRequest) []wireMessage {
	messages := []wireMessage{{Role: "system", Content: req.SystemPrompt}}

	if len(req.ContextFiles) > 0 {
		var parts []string
		for _, f := range req.ContextFiles {
			parts = append(parts, fmt.Sprintf("File: %s\n```\n%s\n```", f.Name, f.Content))
		}
		messages = append(messages, wireMessage{Role: "system", Content: "Context:\n" + strings.Join(parts, "\n\n")})
	}
	if len(req.History) > 0 {
		messages = append(messages, wireMessage{Role: "system", Content: "Recent shell history:\n" + strings.Join(req.History, "\n")})
	}

	return append(messages, wireMessage{Role: "user", Content: req.UserQuery})
}

func (c *Client) post(ctx context.Context, body wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", providerName, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &ai.ConnectionError{
			Provider: providerName,
			Err:      err,
			Hint:     "Is the Ollama server running at " + c.BaseURL + "?",
		}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &ai.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Hint:       fmt.Sprintf("Is model %q pulled? Try `ollama pull %s`", c.model, c.model),
		}
	}
	return resp, nil
}

// StreamCompletion implements ai.Provider.
func (c *Client) StreamCompletion(ctx context.Context, req ai.CompletionRequest) (ai.Stream, error) {
	resp, err := c.post(ctx, wireRequest{Model: c.model, Messages: buildMessages(req), Stream: true})
	if err != nil {
		return nil, err
	}
	dec := ndjson.NewDecoder(extractMessage)
	return ai.NewBodyStream(providerName, resp.Body, dec, "Is the Ollama server still running?"), nil
}

func extractMessage(line string) ([]string, error) {
	var parsed wireResponse
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		return nil, &ai.DecodeError{Provider: providerName, Frame: line, Err: err}
	}
	if parsed.Message.Content == "" {
		return nil, nil
	}
	return []string{parsed.Message.Content}, nil
}

// GetFixSuggestion implements ai.Provider.
func (c *Client) GetFixSuggestion(ctx context.Context, errorLog string) (string, error) {
	body := wireRequest{
		Model: c.model,
		Messages: []wireMessage{
			{Role: "system", Content: prompts.SentinelSystemPrompt},
			{Role: "user", Content: prompts.FixRequest(errorLog)},
		},
		Stream: false,
	}
	resp, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ai.DecodeError{Provider: providerName, Err: err}
	}
	if parsed.Message.Content == "" {
		return ai.NoResponse, nil
	}
	return parsed.Message.Content, nil
}
