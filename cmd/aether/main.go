// Binary aether is an AI copilot for the command line.
//
// Usage:
//
//	aether lens [--buffer TEXT] [--cursor N]   interactive command generation
//	aether pipe INSTRUCTION                    transform stdin with AI
//	aether sentinel [--log FILE]               suggest a fix for a failed command
//	aether inject (zsh|bash)                   print shell integration script
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/thamam/ai-cli/pkg/ai"
	"github.com/thamam/ai-cli/pkg/ai/mock"
	"github.com/thamam/ai-cli/pkg/ai/providers/anthropic"
	"github.com/thamam/ai-cli/pkg/ai/providers/bedrock"
	"github.com/thamam/ai-cli/pkg/ai/providers/gemini"
	"github.com/thamam/ai-cli/pkg/ai/providers/ollama"
	"github.com/thamam/ai-cli/pkg/ai/providers/openai"
	"github.com/thamam/ai-cli/pkg/brain"
	"github.com/thamam/ai-cli/pkg/config"
	"github.com/thamam/ai-cli/pkg/fsscan"
	"github.com/thamam/ai-cli/pkg/prompts"
	"github.com/thamam/ai-cli/pkg/shell"
	"github.com/thamam/ai-cli/pkg/shellctx"
	"github.com/thamam/ai-cli/pkg/tui"
)

func main() {
	// Local overrides for API keys; absence is not an error.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "aether",
		Usage: "AI copilot for the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file"},
			&cli.StringFlag{Name: "provider", Usage: "override the configured provider"},
			&cli.StringFlag{Name: "model", Usage: "override the configured model"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			lensCommand(),
			pipeCommand(),
			sentinelCommand(),
			injectCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "aether: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cli.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if cmd.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// buildProvider resolves the active provider from config plus the --provider
// and --model overrides.
func buildProvider(cfg *config.Config, name, model string) (ai.Provider, error) {
	if name == "" {
		name = cfg.DefaultProvider
	}

	switch name {
	case "ollama":
		c := cfg.Providers.Ollama
		if model == "" {
			model = c.Model
		}
		base := c.BaseURL
		if base == "" {
			base = ollama.DefaultBaseURL
		}
		return ollama.New(base, model), nil

	case "openai":
		c := cfg.Providers.OpenAI
		if model == "" {
			model = c.Model
		}
		if c.APIKey != "" {
			return openai.New(c.APIKey, model), nil
		}
		return openai.FromEnv(model)

	case "anthropic":
		c := cfg.Providers.Anthropic
		if model == "" {
			model = c.Model
		}
		if c.APIKey != "" {
			return anthropic.New(c.APIKey, model), nil
		}
		return anthropic.FromEnv(model)

	case "gemini":
		c := cfg.Providers.Gemini
		if model == "" {
			model = c.Model
		}
		if c.APIKey != "" {
			return gemini.New(c.APIKey, model), nil
		}
		return gemini.FromEnv(model)

	case "bedrock":
		c := cfg.Providers.Bedrock
		if model == "" {
			model = c.Model
		}
		return bedrock.New(c.Region, c.Profile, model), nil

	case "mock":
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func recentCommands(n int) []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	cmds, err := shellctx.History{HomeDir: home}.Recent(n)
	if err != nil {
		return nil
	}
	return cmds
}

func lensCommand() *cli.Command {
	return &cli.Command{
		Name:  "lens",
		Usage: "open the interactive overlay and print the accepted command",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "buffer", Usage: "current command line buffer"},
			&cli.IntFlag{Name: "cursor", Usage: "cursor position in the buffer"},
			&cli.BoolFlag{Name: "context", Usage: "include files from the working directory"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(cmd)
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg, cmd.String("provider"), cmd.String("model"))
			if err != nil {
				return err
			}
			model := cfg.Model(cmd.String("provider"))
			log.Debug().
				Stringer("model", model).
				Bool("local", model.Kind == ai.ModelLocal).
				Msg("provider selected")

			opts := tui.Options{
				Provider:     provider,
				SystemPrompt: prompts.System(prompts.ModeLens, recentCommands(5)),
				InitialQuery: cmd.String("buffer"),
			}
			if cmd.Bool("context") {
				files, err := fsscan.Scanner{}.Scan(".", 10)
				if err != nil {
					log.Debug().Err(err).Msg("context scan failed")
				}
				opts.ContextFiles = files
			}

			result, err := tui.Run(opts)
			if err != nil {
				return err
			}
			if result.Execute && result.Command != "" {
				// stdout is consumed by the shell hook, which replaces
				// the command line buffer with it.
				fmt.Println(result.Command)
			}

			// Refresh the session context without discarding hook data.
			sc, _ := shellctx.Load(shellctx.DefaultPath())
			if sc == nil {
				sc = &shellctx.Context{}
			}
			sc.WorkingDirectory = mustGetwd()
			if sc.ShellType == "" {
				sc.ShellType = shellName()
			}
			if err := sc.Save(shellctx.DefaultPath()); err != nil {
				log.Debug().Err(err).Msg("context save failed")
			}
			return nil
		},
	}
}

func pipeCommand() *cli.Command {
	return &cli.Command{
		Name:      "pipe",
		Usage:     "transform stdin according to an instruction",
		ArgsUsage: "INSTRUCTION",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			instruction := strings.Join(cmd.Args().Slice(), " ")
			if instruction == "" {
				return fmt.Errorf("pipe requires an instruction argument")
			}
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg, cmd.String("provider"), cmd.String("model"))
			if err != nil {
				return err
			}

			b := brain.New(provider, brain.WithLogger(newLogger(cmd)))
			out, err := b.ProcessPipe(ctx, instruction, string(input))
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func sentinelCommand() *cli.Command {
	return &cli.Command{
		Name:  "sentinel",
		Usage: "suggest a fix for a failed command",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log", Usage: "read the error log from a file instead of stdin"},
			&cli.BoolFlag{Name: "interactive", Usage: "review the suggestion in the overlay"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			errorLog, err := readErrorLog(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(errorLog) == "" {
				return fmt.Errorf("sentinel requires an error log (stdin, --log, or a shell hook)")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg, cmd.String("provider"), cmd.String("model"))
			if err != nil {
				return err
			}

			b := brain.New(provider, brain.WithLogger(newLogger(cmd)))
			suggestion, err := b.ProcessError(ctx, errorLog)
			if err != nil {
				return err
			}

			if cmd.Bool("interactive") {
				result, err := tui.Run(tui.Options{
					Provider:    provider,
					InitialDiff: suggestion,
				})
				if err != nil {
					return err
				}
				if result.ApplyPatch {
					fmt.Println(result.Patch)
				}
				return nil
			}

			fmt.Println(suggestion)
			return nil
		},
	}
}

func injectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inject",
		Usage:     "print the shell integration script",
		ArgsUsage: "(zsh|bash)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			script, err := shell.Script(cmd.Args().First())
			if err != nil {
				return err
			}
			fmt.Print(script)
			return nil
		},
	}
}

// readErrorLog resolves the failure to diagnose: an explicit --log file,
// piped stdin, or the session context the shell hook recorded after the
// last command.
func readErrorLog(cmd *cli.Command) (string, error) {
	if path := cmd.String("log"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read log: %w", err)
		}
		return string(data), nil
	}

	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	sc, err := shellctx.Load(shellctx.DefaultPath())
	if err != nil || sc == nil || sc.LastCommand == "" {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Command: %s\n", sc.LastCommand)
	if sc.LastExitCode != nil {
		fmt.Fprintf(&b, "Exit code: %d\n", *sc.LastExitCode)
	}
	if sc.LastError != "" {
		fmt.Fprintf(&b, "Error output:\n%s\n", sc.LastError)
	}
	if sc.WorkingDirectory != "" {
		fmt.Fprintf(&b, "Working directory: %s\n", sc.WorkingDirectory)
	}
	return b.String(), nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func shellName() string {
	sh := os.Getenv("SHELL")
	if i := strings.LastIndex(sh, "/"); i >= 0 {
		sh = sh[i+1:]
	}
	if sh == "" {
		sh = "sh"
	}
	return sh
}
