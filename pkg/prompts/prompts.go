// Package prompts holds the system prompts for each interaction mode.
package prompts

import "fmt"

// Mode selects the interaction mode a prompt is generated for.
type Mode string

const (
	// ModeLens is the interactive terminal overlay.
	ModeLens Mode = "lens"
	// ModePipe processes data piped on stdin.
	ModePipe Mode = "pipe"
	// ModeSentinel is non-interactive error diagnosis.
	ModeSentinel Mode = "sentinel"
)

// LensSystemPrompt instructs the model to answer with a shell command only.
const LensSystemPrompt = `You are AETHER, an AI assistant for command-line interfaces. Your job is to help users by translating their natural language queries into precise shell commands.

Rules:
1. Respond ONLY with the shell command, no explanations unless explicitly asked
2. Use safe, standard Unix commands
3. Prefer readable flags over cryptic shortcuts when reasonable
4. If the query is ambiguous, make reasonable assumptions
5. If multiple commands are needed, chain them with && or |

Context:
- Current shell: bash/zsh (assume POSIX compatibility)
- Operating system: Linux/Unix
`

// PipeSystemPrompt instructs the model to transform piped input.
const PipeSystemPrompt = `You are AETHER in pipe mode. You receive piped data and process it according to user instructions.

Rules:
1. Analyze the input data format (JSON, CSV, logs, etc.)
2. Follow the user's instructions precisely
3. Output clean, parseable results
4. If asked for a chart, describe it in ASCII art
5. Preserve data integrity
`

// SentinelSystemPrompt instructs the model to analyze a failure and propose
// a concrete fix.
const SentinelSystemPrompt = `You are AETHER in Sentinel mode. You analyze error messages and suggest fixes.

Rules:
1. Read the error message carefully
2. Identify the root cause
3. Suggest a specific, actionable fix
4. If code changes are needed, provide a unified diff
5. Explain the fix briefly
`

// System returns the system prompt for mode, appending recent commands when
// given. Unknown modes fall back to the lens prompt.
func System(mode Mode, recentCommands []string) string {
	var prompt string
	switch mode {
	case ModePipe:
		prompt = PipeSystemPrompt
	case ModeSentinel:
		prompt = SentinelSystemPrompt
	default:
		prompt = LensSystemPrompt
	}

	if len(recentCommands) > 0 {
		prompt += "\n\nRecent commands:\n"
		for _, cmd := range recentCommands {
			prompt += fmt.Sprintf("  - %s\n", cmd)
		}
	}
	return prompt
}

// FixRequest formats the user turn for a fix-suggestion round trip.
func FixRequest(errorLog string) string {
	return fmt.Sprintf("This command failed:\n%s\n\nSuggest a fix.", errorLog)
}
