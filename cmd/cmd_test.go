package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/knoweval/internal/config"
	"github.com/ziadkadry99/knoweval/internal/llm"
)

func TestCreateLLMProviderRequiresKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	cfg := config.DefaultConfig()

	_, err := createLLMProviderFromConfig(cfg)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestCreateLLMProviderRateLimited(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "test-key")
	cfg := config.DefaultConfig()
	cfg.RateLimitRPM = 30

	p, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*llm.RateLimitedProvider); !ok {
		t.Errorf("provider = %T, want rate limited", p)
	}
}

func TestResolveModel(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := resolveModel(cfg, ""); got != cfg.Model {
		t.Errorf("empty flag = %q, want %q", got, cfg.Model)
	}
	if got := resolveModel(cfg, "gemini-2.5-pro"); got != "gemini-2.5-pro" {
		t.Errorf("flag = %q", got)
	}
}

func TestReadNoteInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { noteContent, noteFrom = "", "" })

	noteContent, noteFrom = "inline", ""
	if got, _ := readNoteInput(); got != "inline" {
		t.Errorf("content flag = %q", got)
	}

	noteFrom = path
	if got, _ := readNoteInput(); got != "from file" {
		t.Errorf("from flag = %q", got)
	}

	noteFrom = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := readNoteInput(); err == nil {
		t.Error("expected error for a missing --from file")
	}
}

func TestLoadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".knoweval.yml")
	if err := os.WriteFile(path, []byte("provider: google\nmodel: gpt-4o\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })

	if _, err := loadConfig(); !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration for a model outside the catalog", err)
	}
}
