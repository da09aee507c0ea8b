// Package config loads and persists the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"

	"github.com/thamam/ai-cli/pkg/ai"
)

// Config is the YAML structure of the aether config file.
type Config struct {
	// DefaultProvider: "ollama" | "openai" | "anthropic" | "gemini" | "bedrock"
	DefaultProvider string `yaml:"default_provider"`

	Providers ProvidersConfig `yaml:"providers"`
	UI        UIConfig        `yaml:"ui"`
	Safety    SafetyConfig    `yaml:"safety"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	Ollama    OllamaConfig  `yaml:"ollama"`
	OpenAI    CloudConfig   `yaml:"openai"`
	Anthropic CloudConfig   `yaml:"anthropic"`
	Gemini    CloudConfig   `yaml:"gemini"`
	Bedrock   BedrockConfig `yaml:"bedrock"`
}

// OllamaConfig configures the local inference server. No credential.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// CloudConfig configures a hosted API provider. APIKey may be a literal key
// or "${ENV_VAR}" to read from the environment; when empty, the provider's
// own environment variable is consulted at construction time.
type CloudConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// BedrockConfig configures Amazon Bedrock; credentials come from the AWS
// credential chain, not this file.
type BedrockConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
	Model   string `yaml:"model"`
}

// UIConfig holds terminal overlay preferences.
type UIConfig struct {
	ModalWidthPercent  int  `yaml:"modal_width_percent"`
	ModalHeightPercent int  `yaml:"modal_height_percent"`
	Animations         bool `yaml:"animations"`
}

// SafetyConfig controls destructive-command handling.
type SafetyConfig struct {
	DetectDestructiveCommands bool `yaml:"detect_destructive_commands"`
	ConfirmDestructive        bool `yaml:"confirm_destructive"`
}

// Default returns the configuration written on first run: local inference
// enabled, cloud providers present but disabled.
func Default() *Config {
	return &Config{
		DefaultProvider: "ollama",
		Providers: ProvidersConfig{
			Ollama:    OllamaConfig{Enabled: true, BaseURL: "http://localhost:11434", Model: "llama3"},
			OpenAI:    CloudConfig{Model: "gpt-4o"},
			Anthropic: CloudConfig{Model: "claude-3-5-sonnet-20241022"},
			Gemini:    CloudConfig{Model: "gemini-1.5-pro"},
			Bedrock:   BedrockConfig{Region: "us-east-1", Model: "anthropic.claude-3-5-sonnet-20241022-v2:0"},
		},
		UI: UIConfig{
			ModalWidthPercent:  80,
			ModalHeightPercent: 70,
			Animations:         true,
		},
		Safety: SafetyConfig{
			DetectDestructiveCommands: true,
			ConfirmDestructive:        true,
		},
	}
}

// Model resolves the model identity for the named provider (the default
// provider when name is empty). Ollama is the only local backend; everything
// else is a hosted API.
func (c *Config) Model(name string) ai.ModelType {
	if name == "" {
		name = c.DefaultProvider
	}
	switch name {
	case "ollama":
		return ai.LocalModel(c.Providers.Ollama.Model)
	case "openai":
		return ai.CloudModel(c.Providers.OpenAI.Model)
	case "anthropic":
		return ai.CloudModel(c.Providers.Anthropic.Model)
	case "gemini":
		return ai.CloudModel(c.Providers.Gemini.Model)
	case "bedrock":
		return ai.CloudModel(c.Providers.Bedrock.Model)
	default:
		return ai.ModelType{}
	}
}

// DefaultPath resolves the config location under the XDG config home.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("aether", "config.yaml"))
}

// Load reads and parses the config at path, expanding ${ENV_VAR} references
// in the raw YAML before parsing. A missing file materializes and returns
// the default config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := cfg.Save(path); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func validate(cfg *Config) error {
	cfg.DefaultProvider = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	switch cfg.DefaultProvider {
	case "ollama", "openai", "anthropic", "gemini", "bedrock":
		return nil
	case "":
		return fmt.Errorf("config: default_provider is required")
	default:
		return fmt.Errorf("config: unknown provider %q", cfg.DefaultProvider)
	}
}
