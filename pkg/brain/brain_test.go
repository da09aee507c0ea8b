package brain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/ai/mock"
	"github.com/thamam/ai-cli/pkg/brain"
)

type recordingProvider struct {
	*mock.Provider
	lastReq ai.CompletionRequest
}

func (p *recordingProvider) StreamCompletion(ctx context.Context, req ai.CompletionRequest) (ai.Stream, error) {
	p.lastReq = req
	return p.Provider.StreamCompletion(ctx, req)
}

type stubHistory struct{ cmds []string }

func (h stubHistory) Recent(n int) ([]string, error) { return h.cmds, nil }

type stubScanner struct{ files []ai.ContextFile }

func (s stubScanner) Scan(dir string, maxFiles int) ([]ai.ContextFile, error) {
	return s.files, nil
}

type failingHistory struct{}

func (failingHistory) Recent(int) ([]string, error) { return nil, errors.New("no history file") }

func TestProcessQuery(t *testing.T) {
	b := brain.New(mock.New())
	got, err := b.ProcessQuery(context.Background(), "list files", false)
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if got != "ls -la" {
		t.Errorf("answer = %q, want ls -la", got)
	}
}

func TestProcessQuery_TrimsWhitespace(t *testing.T) {
	p := mock.New().WithResponse("pad", "  echo padded  \n")
	got, err := brain.New(p).ProcessQuery(context.Background(), "pad", false)
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if got != "echo padded" {
		t.Errorf("answer = %q, want trimmed", got)
	}
}

func TestProcessQuery_EnrichesWithContext(t *testing.T) {
	p := &recordingProvider{Provider: mock.New()}
	b := brain.New(p,
		brain.WithHistory(stubHistory{cmds: []string{"cd /srv"}}),
		brain.WithScanner(stubScanner{files: []ai.ContextFile{{Name: "main.go", Content: "package main"}}}),
	)

	if _, err := b.ProcessQuery(context.Background(), "list files", true); err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if len(p.lastReq.History) != 1 || p.lastReq.History[0] != "cd /srv" {
		t.Errorf("history = %q", p.lastReq.History)
	}
	if len(p.lastReq.ContextFiles) != 1 || p.lastReq.ContextFiles[0].Name != "main.go" {
		t.Errorf("context files = %+v", p.lastReq.ContextFiles)
	}
}

func TestProcessQuery_SkipsContextWhenNotRequested(t *testing.T) {
	p := &recordingProvider{Provider: mock.New()}
	b := brain.New(p, brain.WithHistory(stubHistory{cmds: []string{"cd /srv"}}))

	if _, err := b.ProcessQuery(context.Background(), "list files", false); err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if len(p.lastReq.History) != 0 {
		t.Errorf("history = %q, want none", p.lastReq.History)
	}
}

func TestProcessQuery_HistoryFailureIsNotFatal(t *testing.T) {
	b := brain.New(mock.New(), brain.WithHistory(failingHistory{}))
	got, err := b.ProcessQuery(context.Background(), "list files", true)
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if got != "ls -la" {
		t.Errorf("answer = %q", got)
	}
}

func TestProcessPipe(t *testing.T) {
	p := &recordingProvider{Provider: mock.New().WithDefault("transformed")}
	got, err := brain.New(p).ProcessPipe(context.Background(), "to csv", "a b c")
	if err != nil {
		t.Fatalf("ProcessPipe: %v", err)
	}
	if got != "transformed" {
		t.Errorf("answer = %q", got)
	}
	if len(p.lastReq.ContextFiles) != 1 || p.lastReq.ContextFiles[0].Name != "stdin" {
		t.Fatalf("context files = %+v, want piped input as stdin", p.lastReq.ContextFiles)
	}
	if p.lastReq.ContextFiles[0].Content != "a b c" {
		t.Errorf("stdin content = %q", p.lastReq.ContextFiles[0].Content)
	}
}

func TestProcessError(t *testing.T) {
	got, err := brain.New(mock.New()).ProcessError(context.Background(), "segfault")
	if err != nil {
		t.Fatalf("ProcessError: %v", err)
	}
	if got == "" {
		t.Error("fix suggestion is empty")
	}
}

func TestAnalyzeCommand(t *testing.T) {
	b := brain.New(mock.New())
	if !b.AnalyzeCommand("rm -rf /").Destructive {
		t.Error("rm -rf / not flagged destructive")
	}
	if b.AnalyzeCommand("ls").Destructive {
		t.Error("ls flagged destructive")
	}
}
