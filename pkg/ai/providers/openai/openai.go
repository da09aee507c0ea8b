// Package openai implements ai.Provider for the OpenAI Chat Completions API
// (streaming via SSE, terminated by a literal [DONE] sentinel).
package openai

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
	defaultBaseURL = "https://api.openai.com/v1"
	envAPIKey      = "AETHER_OPENAI_API_KEY"
	providerName   = "openai"
)

// Client is the OpenAI provider.
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

// FromEnv creates a Client with the credential from AETHER_OPENAI_API_KEY.
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
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Streaming chunk: every data frame is a content-bearing frame; a chunk may
// batch several choices, all of which are emitted in order.
type wireChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildMessages maps a CompletionRequest onto the chat schema: the system
// prompt leads, context files and history follow as further system messages,
// and the query closes as the user message.
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
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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
	resp, err := c.post(ctx, wireRequest{Model: c.model, Messages: buildMessages(req), Stream: true})
	if err != nil {
		return nil, err
	}
	dec := sse.NewDecoder(extractChunk)
	return ai.NewBodyStream(providerName, resp.Body, dec, "Check your "+envAPIKey), nil
}

// extractChunk decodes one SSE payload. Unlike Anthropic's event mix, every
// OpenAI data frame after the [DONE] sentinel is filtered is a completion
// chunk, so a payload that fails to parse is a decode error.
func extractChunk(data string) ([]string, error) {
	var chunk wireChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, &ai.DecodeError{Provider: providerName, Frame: data, Err: err}
	}
	var frags []string
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			frags = append(frags, choice.Delta.Content)
		}
	}
	return frags, nil
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
	if len(parsed.Choices) == 0 {
		return ai.NoResponse, nil
	}
	return parsed.Choices[0].Message.Content, nil
}
