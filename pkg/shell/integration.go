// Package shell provides the zsh and bash integration scripts emitted by
// the inject subcommand. The scripts bind Ctrl+G to the lens overlay and
// install a post-command hook that records the active session context.
package shell

import (
	_ "embed"
	"fmt"
)

//go:embed zsh.sh
var zshScript string

//go:embed bash.sh
var bashScript string

// Script returns the integration script for the named shell.
func Script(shell string) (string, error) {
	switch shell {
	case "zsh":
		return zshScript, nil
	case "bash":
		return bashScript, nil
	default:
		return "", fmt.Errorf("shell: unsupported shell %q (expected zsh or bash)", shell)
	}
}
