// Package ai defines the unified streaming completion layer: the request
// value handed to providers, the capability contract every provider
// implements, the pull-based fragment stream, and the error taxonomy.
package ai

// ContextFile is one file included with a request for grounding. Order in
// CompletionRequest.ContextFiles encodes relevance, most relevant first.
type ContextFile struct {
	Name    string
	Content string
}

// CompletionRequest is the provider-agnostic input for one completion.
// It is built fresh per call and never mutated after construction. How the
// fields are folded into a provider's message schema (separate system field,
// leading message, merged into the user turn) is per-provider policy.
type CompletionRequest struct {
	SystemPrompt string
	UserQuery    string
	ContextFiles []ContextFile
	History      []string // recent shell commands, most recent first
}

// ModelKind distinguishes hosted API models from models served by a local
// inference server.
type ModelKind int

const (
	ModelCloud ModelKind = iota
	ModelLocal
)

// ModelType identifies a model for configuration and provider selection.
// The streaming layer itself never inspects it.
type ModelType struct {
	Kind ModelKind
	ID   string
}

func CloudModel(id string) ModelType { return ModelType{Kind: ModelCloud, ID: id} }
func LocalModel(id string) ModelType { return ModelType{Kind: ModelLocal, ID: id} }

func (m ModelType) String() string { return m.ID }
