package llm

import (
	"fmt"
)

// Options carries the credentials and endpoint overrides for a provider.
type Options struct {
	APIKey string
	// BaseURL overrides the provider endpoint. Empty means the public API
	// (or http://localhost:11434 for ollama).
	BaseURL string
}

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "google", "openai", "ollama".
func NewProvider(providerType string, model string, opts Options) (Provider, error) {
	switch providerType {
	case "google":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google provider requires an API key")
		}
		p := NewGoogleProvider(opts.APIKey, model)
		if opts.BaseURL != "" {
			p.baseURL = opts.BaseURL
		}
		return p, nil

	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(opts.APIKey, model, opts.BaseURL), nil

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
