package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// modelItems renders a provider's catalog for a select prompt.
func modelItems(provider ProviderType) []string {
	models := Models(provider)
	items := make([]string, len(models))
	for i, m := range models {
		items[i] = fmt.Sprintf("%-18s %s", m.ID, m.Label)
	}
	return items
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("enter a port between 1 and 65535")
	}
	return nil
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to knoweval! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providers := []ProviderType{ProviderGoogle, ProviderOpenAI, ProviderOllama}
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: providers,
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = providers[providerIdx]

	// 2. Model.
	modelPrompt := promptui.Select{
		Label: "Select model",
		Items: modelItems(cfg.Provider),
	}
	modelIdx, _, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = Models(cfg.Provider)[modelIdx].ID

	// 3. Knowledge directory.
	dirPrompt := promptui.Prompt{
		Label:   "Knowledge directory",
		Default: cfg.KnowledgeDir,
	}
	knowledgeDir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("knowledge dir: %w", err)
	}
	if strings.TrimSpace(knowledgeDir) != "" {
		cfg.KnowledgeDir = strings.TrimSpace(knowledgeDir)
	}

	// 4. Dashboard port.
	portPrompt := promptui.Prompt{
		Label:    "Dashboard port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	if cfg.Provider == ProviderOllama {
		hostPrompt := promptui.Prompt{
			Label:   "Ollama host",
			Default: "http://localhost:11434",
		}
		host, err := hostPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("ollama host: %w", err)
		}
		cfg.BaseURL = strings.TrimSpace(host)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running knoweval evaluate.\n", envVar)
	}

	if err := os.MkdirAll(cfg.KnowledgeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge dir: %w", err)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
