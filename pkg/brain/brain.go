// Package brain is the headless aggregator: it drives the capability
// contract to completion with no UI attached, so the same logic serves
// pipe mode, sentinel mode, and tests.
package brain

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/prompts"
	"github.com/thamam/ai-cli/pkg/safety"
)

// HistoryReader supplies recent shell commands for request enrichment.
type HistoryReader interface {
	Recent(n int) ([]string, error)
}

// FileScanner supplies workspace files for request enrichment, ordered by
// relevance.
type FileScanner interface {
	Scan(dir string, maxFiles int) ([]ai.ContextFile, error)
}

// Brain aggregates a provider's fragment stream into a complete answer.
// It blocks its caller until the stream finishes; keeping a UI alive during
// a request is the renderer's job, not the Brain's.
type Brain struct {
	provider ai.Provider
	history  HistoryReader
	scanner  FileScanner
	log      zerolog.Logger
}

// Option configures optional collaborators.
type Option func(*Brain)

// WithHistory wires a shell-history reader used when context is requested.
func WithHistory(h HistoryReader) Option { return func(b *Brain) { b.history = h } }

// WithScanner wires a file scanner used when context is requested.
func WithScanner(s FileScanner) Option { return func(b *Brain) { b.scanner = s } }

// WithLogger replaces the default no-op logger.
func WithLogger(log zerolog.Logger) Option { return func(b *Brain) { b.log = log } }

func New(provider ai.Provider, opts ...Option) *Brain {
	b := &Brain{provider: provider, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

const (
	historyDepth    = 5
	maxContextFiles = 10
)

// ProcessQuery translates a natural-language query into a shell command:
// it builds the request (enriched from the collaborators when
// includeContext is set), pulls the fragment stream to completion, and
// returns the concatenated, whitespace-trimmed answer.
func (b *Brain) ProcessQuery(ctx context.Context, query string, includeContext bool) (string, error) {
	req := ai.CompletionRequest{
		SystemPrompt: prompts.System(prompts.ModeLens, nil),
		UserQuery:    query,
	}

	if includeContext {
		if b.history != nil {
			if history, err := b.history.Recent(historyDepth); err == nil {
				req.History = history
			} else {
				b.log.Debug().Err(err).Msg("history unavailable")
			}
		}
		if b.scanner != nil {
			if files, err := b.scanner.Scan(".", maxContextFiles); err == nil {
				req.ContextFiles = files
			} else {
				b.log.Debug().Err(err).Msg("file scan unavailable")
			}
		}
	}

	return b.collect(ctx, req)
}

// ProcessPipe transforms piped input according to instruction, using the
// pipe-mode system prompt. The input rides as a context file so every
// provider folds it in with its own schema.
func (b *Brain) ProcessPipe(ctx context.Context, instruction, input string) (string, error) {
	req := ai.CompletionRequest{
		SystemPrompt: prompts.System(prompts.ModePipe, nil),
		UserQuery:    instruction,
		ContextFiles: []ai.ContextFile{{Name: "stdin", Content: input}},
	}
	return b.collect(ctx, req)
}

func (b *Brain) collect(ctx context.Context, req ai.CompletionRequest) (string, error) {
	b.log.Debug().Str("model", b.provider.ModelName()).Msg("starting completion")

	stream, err := b.provider.StreamCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		frag, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		sb.WriteString(frag)
	}
	return strings.TrimSpace(sb.String()), nil
}

// ProcessError passes an error log through to the provider's fix-suggestion
// call (sentinel mode).
func (b *Brain) ProcessError(ctx context.Context, errorLog string) (string, error) {
	return b.provider.GetFixSuggestion(ctx, errorLog)
}

// AnalyzeCommand classifies a command for safety review. Pure policy, no
// network.
func (b *Brain) AnalyzeCommand(command string) safety.Analysis {
	return safety.Analyze(command)
}
