// Package gemini implements ai.Provider for the Google Gemini REST API.
// Streaming responses arrive as line-delimited JSON from
// :streamGenerateContent; authentication is a key query parameter.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/ai/ndjson"
	"github.com/thamam/ai-cli/pkg/prompts"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	envAPIKey      = "AETHER_GEMINI_API_KEY"
	providerName   = "gemini"
)

// Client is the Google Gemini provider.
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

// FromEnv creates a Client with the credential from AETHER_GEMINI_API_KEY.
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

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role"`
	Parts []wirePart `json:"parts"`
}

type wireRequest struct {
	Contents          []wireContent `json:"contents"`
	SystemInstruction *wireContent  `json:"system_instruction,omitempty"`
}

// Each NDJSON line may batch several candidates, each with several parts;
// all are emitted in the order given.
type wireResponse struct {
	Candidates []struct {
		Content struct {
			Parts []wirePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// buildRequest maps a CompletionRequest onto the generateContent schema:
// the system prompt becomes the system_instruction, while history and
// context files are folded into the single user turn ahead of the query.
func (c *Client) buildRequest(req ai.CompletionRequest) wireRequest {
	var userParts []string

	if len(req.History) > 0 {
		userParts = append(userParts, "Recent shell history:\n"+strings.Join(req.History, "\n"))
	}
	if len(req.ContextFiles) > 0 {
		var parts []string
		for _, f := range req.ContextFiles {
			parts = append(parts, fmt.Sprintf("File: %s\n```\n%s\n```", f.Name, f.Content))
		}
		userParts = append(userParts, "Context:\n"+strings.Join(parts, "\n\n"))
	}
	userParts = append(userParts, req.UserQuery)

	return wireRequest{
		Contents: []wireContent{{
			Role:  "user",
			Parts: []wirePart{{Text: strings.Join(userParts, "\n\n")}},
		}},
		SystemInstruction: &wireContent{
			Role:  "user",
			Parts: []wirePart{{Text: req.SystemPrompt}},
		},
	}
}

func (c *Client) post(ctx context.Context, method string, body wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", providerName, err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:%s?key=%s", c.BaseURL, c.model, method, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
	resp, err := c.post(ctx, "streamGenerateContent", c.buildRequest(req))
	if err != nil {
		return nil, err
	}
	dec := ndjson.NewDecoder(extractParts)
	return ai.NewBodyStream(providerName, resp.Body, dec, "Check your "+envAPIKey), nil
}

func extractParts(line string) ([]string, error) {
	var parsed wireResponse
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		return nil, &ai.DecodeError{Provider: providerName, Frame: line, Err: err}
	}
	var frags []string
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				frags = append(frags, part.Text)
			}
		}
	}
	return frags, nil
}

// GetFixSuggestion implements ai.Provider.
func (c *Client) GetFixSuggestion(ctx context.Context, errorLog string) (string, error) {
	body := wireRequest{
		Contents: []wireContent{{
			Role:  "user",
			Parts: []wirePart{{Text: prompts.FixRequest(errorLog)}},
		}},
		SystemInstruction: &wireContent{
			Role:  "user",
			Parts: []wirePart{{Text: prompts.SentinelSystemPrompt}},
		},
	}
	resp, err := c.post(ctx, "generateContent", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ai.DecodeError{Provider: providerName, Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return ai.NoResponse, nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
