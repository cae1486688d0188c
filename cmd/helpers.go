package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/knoweval/internal/archive"
	"github.com/ziadkadry99/knoweval/internal/audit"
	"github.com/ziadkadry99/knoweval/internal/config"
	"github.com/ziadkadry99/knoweval/internal/db"
	"github.com/ziadkadry99/knoweval/internal/evaluator"
	"github.com/ziadkadry99/knoweval/internal/knowledge"
	"github.com/ziadkadry99/knoweval/internal/llm"
	"github.com/ziadkadry99/knoweval/internal/logging"
	"github.com/ziadkadry99/knoweval/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `knoweval init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds everything a command needs. Commands that only touch notes
// skip the evaluator, and therefore the API key check.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *db.DB
	audit     *audit.Store
	store     *knowledge.Store
	archive   *archive.Archive
	evaluator *evaluator.Evaluator
}

// newApp loads config and opens the activity database. withEvaluator also
// builds the LLM provider, which fails fast without credentials.
func newApp(withEvaluator bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     logger,
		db:      database,
		audit:   audit.NewStore(database),
		store:   knowledge.NewStore(cfg.KnowledgeDir),
		archive: archive.New(cfg.EvaluationsDir()),
	}

	if withEvaluator {
		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			a.close()
			return nil, err
		}
		a.evaluator = evaluator.New(provider, config.ModelIDs(cfg.Provider),
			evaluator.WithTemperature(cfg.Temperature),
			evaluator.WithMaxTokens(cfg.MaxTokens),
		)
		logger.Debug("evaluator ready",
			zap.String("provider", provider.Name()),
			zap.String("model", cfg.Model),
			zap.Int("rate_limit_rpm", cfg.RateLimitRPM),
		)
	}
	return a, nil
}

func (a *app) close() {
	a.db.Close()
	a.log.Sync()
}

// deps returns the session collaborators tagged with the given source.
func (a *app) deps(source audit.Source) session.Deps {
	return session.Deps{
		Store:     a.store,
		Archive:   a.archive,
		Evaluator: a.evaluator,
		Audit:     a.audit,
		Logger:    a.log,
		Source:    source,
	}
}

// newSession starts a one-off session for a single command invocation.
func (a *app) newSession(source audit.Source) *session.Session {
	return session.New(uuid.NewString(), a.deps(source))
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings, wrapped in the configured rate limit.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	apiKey, err := cfg.RequireAPIKey()
	if err != nil {
		return nil, err
	}
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, llm.Options{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM), nil
}

// resolveModel picks the --model flag or the configured default.
func resolveModel(cfg *config.Config, flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return cfg.Model
}
