// Package shellctx bridges the shell and the assistant: it reads the user's
// shell history for request enrichment and manages the session-context file
// that shell hooks write after every command, which sentinel mode reads to
// diagnose the last failure.
package shellctx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Context is the state persisted by the shell hooks after each command.
type Context struct {
	SessionID        string `json:"session_id"`
	LastCommand      string `json:"last_command,omitempty"`
	LastExitCode     *int   `json:"last_exit_code,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	WorkingDirectory string `json:"working_directory"`
	ShellType        string `json:"shell_type"`
}

// DefaultPath is where the shell hooks write the context file.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "aether", "context.json")
}

// contextSchema validates the hook-written file before we trust it. The
// hooks emit JSON with printf, so a partially written or corrupted file is
// a real possibility.
const contextSchema = `{
  "type": "object",
  "properties": {
    "session_id": {"type": "string"},
    "last_command": {"type": "string"},
    "last_exit_code": {"type": "integer"},
    "last_error": {"type": "string"},
    "working_directory": {"type": "string"},
    "shell_type": {"type": "string"}
  },
  "required": ["working_directory", "shell_type"]
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(contextSchema))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		const url = "mem://shellctx/context.schema.json"
		if err := c.AddResource(url, doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(url)
	})
	return schema, schemaErr
}

// Load reads and validates the context file at path. A missing file returns
// (nil, nil): no context is a normal state, not an error.
func Load(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("shellctx: read %s: %w", path, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("shellctx: compile schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shellctx: parse %s: %w", path, err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("shellctx: invalid context file %s: %w", path, err)
	}

	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("shellctx: parse %s: %w", path, err)
	}
	return &ctx, nil
}

// Save writes the context file, assigning a session id when missing.
func (c *Context) Save(path string) error {
	if c.SessionID == "" {
		c.SessionID = uuid.New().String()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("shellctx: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("shellctx: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("shellctx: write %s: %w", path, err)
	}
	return nil
}

// History reads recent commands from the user's shell history file. It
// satisfies brain.HistoryReader.
type History struct {
	// HomeDir overrides the home directory lookup (tests).
	HomeDir string
}

// Recent returns up to n commands, most recent first, from the first of
// ~/.bash_history or ~/.zsh_history that exists.
func (h History) Recent(n int) ([]string, error) {
	home := h.HomeDir
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("shellctx: home directory: %w", err)
		}
	}

	for _, name := range []string{".bash_history", ".zsh_history"} {
		data, err := os.ReadFile(filepath.Join(home, name))
		if err != nil {
			continue
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		var commands []string
		for i := len(lines) - 1; i >= 0 && len(commands) < n; i-- {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				continue
			}
			// zsh extended history prefixes entries with ": <ts>:<dur>;".
			if strings.HasPrefix(line, ": ") {
				if _, cmd, ok := strings.Cut(line, ";"); ok {
					line = cmd
				}
			}
			commands = append(commands, line)
		}
		return commands, nil
	}
	return nil, nil
}
