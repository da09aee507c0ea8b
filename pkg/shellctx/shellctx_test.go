package shellctx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thamam/ai-cli/pkg/shellctx"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aether", "context.json")
	exit := 127
	ctx := &shellctx.Context{
		LastCommand:      "make deploy",
		LastExitCode:     &exit,
		WorkingDirectory: "/srv/app",
		ShellType:        "zsh",
	}
	if err := ctx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ctx.SessionID == "" {
		t.Error("Save did not assign a session id")
	}

	got, err := shellctx.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for an existing file")
	}
	if got.LastCommand != "make deploy" || got.WorkingDirectory != "/srv/app" || got.ShellType != "zsh" {
		t.Errorf("loaded = %+v", got)
	}
	if got.LastExitCode == nil || *got.LastExitCode != 127 {
		t.Errorf("exit code = %v, want 127", got.LastExitCode)
	}
	if got.SessionID != ctx.SessionID {
		t.Errorf("session id changed across round trip")
	}
}

func TestSave_KeepsExistingSessionID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	ctx := &shellctx.Context{SessionID: "fixed", WorkingDirectory: "/", ShellType: "bash"}
	if err := ctx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ctx.SessionID != "fixed" {
		t.Errorf("session id = %q, want fixed", ctx.SessionID)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	got, err := shellctx.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestLoad_RejectsTornFile(t *testing.T) {
	// Shell hooks write with printf; a torn write leaves invalid JSON.
	path := filepath.Join(t.TempDir(), "context.json")
	if err := os.WriteFile(path, []byte(`{"working_directory": "/sr`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := shellctx.Load(path); err == nil {
		t.Fatal("want parse error for torn file")
	}
}

func TestLoad_RejectsMissingRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	if err := os.WriteFile(path, []byte(`{"last_command": "ls"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := shellctx.Load(path); err == nil {
		t.Fatal("want validation error when required fields are missing")
	}
}

func TestLoad_RejectsWrongTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	body := `{"working_directory": "/", "shell_type": "zsh", "last_exit_code": "oops"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := shellctx.Load(path); err == nil {
		t.Fatal("want validation error for non-integer exit code")
	}
}

func TestHistory_Bash(t *testing.T) {
	home := t.TempDir()
	hist := "ls -la\ncd /tmp\ngit status\n"
	if err := os.WriteFile(filepath.Join(home, ".bash_history"), []byte(hist), 0o644); err != nil {
		t.Fatal(err)
	}

	cmds, err := shellctx.History{HomeDir: home}.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	want := []string{"git status", "cd /tmp"}
	if len(cmds) != len(want) {
		t.Fatalf("cmds = %q, want %q", cmds, want)
	}
	for i, w := range want {
		if cmds[i] != w {
			t.Errorf("cmds[%d] = %q, want %q", i, cmds[i], w)
		}
	}
}

func TestHistory_ZshExtendedFormat(t *testing.T) {
	home := t.TempDir()
	hist := ": 1700000000:0;docker ps\n: 1700000001:2;kubectl get pods\n"
	if err := os.WriteFile(filepath.Join(home, ".zsh_history"), []byte(hist), 0o644); err != nil {
		t.Fatal(err)
	}

	cmds, err := shellctx.History{HomeDir: home}.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(cmds) != 2 || cmds[0] != "kubectl get pods" || cmds[1] != "docker ps" {
		t.Errorf("cmds = %q", cmds)
	}
}

func TestHistory_NoFile(t *testing.T) {
	cmds, err := shellctx.History{HomeDir: t.TempDir()}.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(cmds) != 0 {
		t.Errorf("cmds = %q, want none", cmds)
	}
}
