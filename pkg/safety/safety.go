// Package safety classifies shell commands that can destroy data. This is
// pure policy — a fixed danger list matched case-insensitively — with no
// connection to the streaming layer.
package safety

import (
	"fmt"
	"strings"
)

// dangerPatterns are matched as substrings against the lowercased command.
var dangerPatterns = []string{
	"rm -rf",
	"rm -fr",
	"drop table",
	"drop database",
	"delete from",
	"truncate",
	"mkfs",
	"dd if=",
	"> /dev/",
	":(){ :|:& };:", // fork bomb
	"chmod -r 777",
	"chown -r",
}

// IsDestructive reports whether command matches the danger list.
func IsDestructive(command string) bool {
	lower := strings.ToLower(command)
	for _, pattern := range dangerPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Analysis describes one command for human review.
type Analysis struct {
	Command     string
	Destructive bool
	Description string
}

// Analyze classifies command and renders a review description.
func Analyze(command string) Analysis {
	if IsDestructive(command) {
		return Analysis{
			Command:     command,
			Destructive: true,
			Description: fmt.Sprintf("WARNING: This command appears to be destructive!\n\nCommand: %s\n\nThis may delete files, modify permissions, or cause irreversible changes.", command),
		}
	}
	return Analysis{
		Command:     command,
		Description: fmt.Sprintf("Command: %s\n\nThis command appears safe to execute.", command),
	}
}
