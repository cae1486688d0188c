package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level knoweval configuration, corresponding to .knoweval.yml.
type Config struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	// APIKey is usually left empty in the file and taken from the
	// provider's environment variable instead.
	APIKey       string       `yaml:"api_key,omitempty" koanf:"api_key"`
	BaseURL      string       `yaml:"base_url,omitempty" koanf:"base_url"`
	KnowledgeDir string       `yaml:"knowledge_dir" koanf:"knowledge_dir"`
	DataDir      string       `yaml:"data_dir" koanf:"data_dir"`
	Temperature  float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens    int          `yaml:"max_tokens" koanf:"max_tokens"`
	RateLimitRPM int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	Server       ServerConfig `yaml:"server" koanf:"server"`
	Log          LogConfig    `yaml:"log" koanf:"log"`
}

// ServerConfig holds dashboard settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	// SessionIdleMinutes is how long an unused browser session is kept.
	SessionIdleMinutes int `yaml:"session_idle_minutes" koanf:"session_idle_minutes"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
