// Package mock provides a deterministic ai.Provider for tests and scripted
// use. Known queries map to canned shell commands; lookups are
// case-insensitive, exact match first, then substring in either direction.
// Unknown queries get the configured default, never an error. Streaming is
// simulated by chunking the canned answer into fixed-size pieces.
package mock

import (
	"context"
	"strings"

	"github.com/thamam/ai-cli/pkg/ai"
)

const (
	// ModelName is the identifier the mock reports.
	ModelName = "mock-provider"

	defaultResponse = "echo 'Command not found in mock responses'"
	chunkSize       = 5
)

// Provider is the deterministic test double.
type Provider struct {
	responses map[string]string
	fallback  string
}

// New creates a Provider pre-loaded with the standard canned queries.
func New() *Provider {
	return &Provider{
		responses: map[string]string{
			"list files":              "ls -la",
			"find python files":       "find . -name '*.py'",
			"undo last git commit":    "git reset --soft HEAD~1",
			"undo last 3 git commits": "git reset --soft HEAD~3",
			"show git status":         "git status",
			"find all python files modified yesterday and tar them": "find . -name '*.py' -mtime -1 | xargs tar -cvf archive.tar",
			"delete all log files": "find . -name '*.log' -delete",
		},
		fallback: defaultResponse,
	}
}

// WithResponse adds a canned response. The query is matched lowercased.
func (p *Provider) WithResponse(query, response string) *Provider {
	p.responses[strings.ToLower(query)] = response
	return p
}

// WithDefault replaces the fallback answer for unrecognized queries.
func (p *Provider) WithDefault(response string) *Provider {
	p.fallback = response
	return p
}

func (p *Provider) lookup(query string) string {
	q := strings.ToLower(query)

	if resp, ok := p.responses[q]; ok {
		return resp
	}
	for key, resp := range p.responses {
		if strings.Contains(q, key) || strings.Contains(key, q) {
			return resp
		}
	}
	return p.fallback
}

// StreamCompletion implements ai.Provider.
func (p *Provider) StreamCompletion(_ context.Context, req ai.CompletionRequest) (ai.Stream, error) {
	return ai.NewChunkStream(p.lookup(req.UserQuery), chunkSize), nil
}

// GetFixSuggestion implements ai.Provider.
func (p *Provider) GetFixSuggestion(context.Context, string) (string, error) {
	return "Mock fix suggestion: Check your configuration file", nil
}

// ModelName implements ai.Provider.
func (p *Provider) ModelName() string { return ModelName }
