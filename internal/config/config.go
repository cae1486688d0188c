package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".knoweval.yml"

// EnvPrefix prefixes every environment override. A double underscore
// selects a nested key: KNOWEVAL_SERVER__PORT sets server.port.
const EnvPrefix = "KNOWEVAL_"

// ErrConfiguration marks a missing or invalid setting.
var ErrConfiguration = errors.New("configuration error")

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (KNOWEVAL_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps KNOWEVAL_SERVER__PORT to server.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("%w: provider is required", ErrConfiguration)
	}
	if Models(c.Provider) == nil {
		return fmt.Errorf("%w: invalid provider %q: must be one of google, openai, ollama", ErrConfiguration, c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrConfiguration)
	}
	if ids := ModelIDs(c.Provider); !slices.Contains(ids, c.Model) {
		return fmt.Errorf("%w: model %q is not available for %s (choose from %s)",
			ErrConfiguration, c.Model, c.Provider, strings.Join(ids, ", "))
	}

	if c.KnowledgeDir == "" {
		return fmt.Errorf("%w: knowledge_dir is required", ErrConfiguration)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrConfiguration)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrConfiguration)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must be non-negative", ErrConfiguration)
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("%w: rate_limit_rpm must be non-negative", ErrConfiguration)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrConfiguration, c.Server.Port)
	}
	if c.Server.SessionIdleMinutes < 0 {
		return fmt.Errorf("%w: server.session_idle_minutes must be non-negative", ErrConfiguration)
	}

	if c.Log.Level != "" && !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("%w: invalid log.level %q: must be one of debug, info, warn, error", ErrConfiguration, c.Log.Level)
	}
	if c.Log.Format != "" && !validLogFormats[c.Log.Format] {
		return fmt.Errorf("%w: invalid log.format %q: must be console or json", ErrConfiguration, c.Log.Format)
	}

	return nil
}

// RequireAPIKey returns the credential for the configured provider: the
// api_key setting first, then the provider's environment variable. It fails
// with ErrConfiguration when neither is set. Ollama needs no key.
func (c *Config) RequireAPIKey() (string, error) {
	if c.Provider == ProviderOllama {
		return c.APIKey, nil
	}
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	envVar := APIKeyEnvVar(c.Provider)
	if envVar != "" {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%w: no API key for %s: set %s or api_key in %s", ErrConfiguration, c.Provider, envVar, DefaultPath)
	}
	return "", fmt.Errorf("%w: no API key for %s", ErrConfiguration, c.Provider)
}

// EvaluationsDir is the archive root inside the knowledge directory.
func (c *Config) EvaluationsDir() string {
	return filepath.Join(c.KnowledgeDir, "evaluations")
}

// DBPath is the activity log database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "knoweval.db")
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
