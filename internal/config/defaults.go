package config

// Model is one selectable model with its display label.
type Model struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// catalog lists the models each provider accepts, default first.
var catalog = map[ProviderType][]Model{
	ProviderGoogle: {
		{ID: "gemini-2.0-flash", Label: "Fastest"},
		{ID: "gemini-2.5-flash", Label: "Balanced"},
		{ID: "gemini-2.5-pro", Label: "Most detailed"},
	},
	ProviderOpenAI: {
		{ID: "gpt-4o-mini", Label: "Fastest"},
		{ID: "gpt-4o", Label: "Most detailed"},
	},
	ProviderOllama: {
		{ID: "llama3", Label: "Local"},
		{ID: "llama3:70b", Label: "Local, large"},
	},
}

// Models returns the catalog for a provider, or nil for an unknown one.
func Models(provider ProviderType) []Model {
	return catalog[provider]
}

// ModelIDs returns just the identifiers of Models(provider).
func ModelIDs(provider ProviderType) []string {
	models := catalog[provider]
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	return ids
}

// DefaultModel returns the first catalog entry of a provider.
func DefaultModel(provider ProviderType) string {
	if models := catalog[provider]; len(models) > 0 {
		return models[0].ID
	}
	return ""
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderGoogle,
		Model:        "gemini-2.0-flash",
		KnowledgeDir: "My_Knowledge",
		DataDir:      ".knoweval",
		Temperature:  0.2,
		RateLimitRPM: 0,
		Server: ServerConfig{
			Port:               8501,
			SessionIdleMinutes: 240,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
