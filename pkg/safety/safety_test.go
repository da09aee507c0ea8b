package safety_test

import (
	"strings"
	"testing"

	"github.com/thamam/ai-cli/pkg/safety"
)

func TestIsDestructive(t *testing.T) {
	destructive := []string{
		"rm -rf /",
		"sudo rm -rf /var/log",
		"rm -fr ~/",
		"DROP TABLE users;",
		"drop database prod",
		"DELETE FROM orders WHERE 1=1",
		"truncate -s 0 data.db",
		"mkfs.ext4 /dev/sda1",
		"dd if=/dev/zero of=/dev/sda",
		"cat nonsense > /dev/sda",
		":(){ :|:& };:",
		"chmod -R 777 /",
		"chown -R nobody /etc",
	}
	for _, cmd := range destructive {
		if !safety.IsDestructive(cmd) {
			t.Errorf("IsDestructive(%q) = false, want true", cmd)
		}
	}

	safe := []string{
		"ls -la",
		"git status",
		"find . -name '*.py'",
		"grep -r TODO .",
		"rm notes.txt",
		"echo hello",
	}
	for _, cmd := range safe {
		if safety.IsDestructive(cmd) {
			t.Errorf("IsDestructive(%q) = true, want false", cmd)
		}
	}
}

func TestAnalyze_Destructive(t *testing.T) {
	a := safety.Analyze("rm -rf /tmp/cache")
	if !a.Destructive {
		t.Fatal("want Destructive = true")
	}
	if a.Command != "rm -rf /tmp/cache" {
		t.Errorf("command = %q", a.Command)
	}
	if !strings.Contains(a.Description, "WARNING") {
		t.Errorf("description = %q, want a warning", a.Description)
	}
}

func TestAnalyze_Safe(t *testing.T) {
	a := safety.Analyze("git log --oneline")
	if a.Destructive {
		t.Fatal("want Destructive = false")
	}
	if !strings.Contains(a.Description, "safe") {
		t.Errorf("description = %q", a.Description)
	}
}
