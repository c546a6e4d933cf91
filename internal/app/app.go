package app

import (
	"context"
	"log/slog"

	"github.com/versolabs/versobot/internal/config"
	"github.com/versolabs/versobot/internal/corpus"
	"github.com/versolabs/versobot/internal/db"
	"github.com/versolabs/versobot/internal/exemplar"
	"github.com/versolabs/versobot/internal/generator"
	"github.com/versolabs/versobot/internal/prompt"
	"github.com/versolabs/versobot/internal/textgen"
)

// App is the main application container holding all dependencies.
type App struct {
	Config    *config.Config
	Store     *db.Store
	Corpus    *corpus.Store
	Index     *exemplar.Index
	Generator *generator.Generator
}

// New creates a new application instance with all dependencies wired up.
// The corpus is optional: a load failure degrades to generation without
// exemplars rather than failing startup.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	var sampler corpus.Sampler

	corpusStore, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		slog.Warn("corpus unavailable, generating without exemplars",
			"path", cfg.CorpusPath, "error", err)
	} else {
		sampler = corpusStore
		slog.Info("corpus loaded", "path", cfg.CorpusPath, "poems", corpusStore.Len())
	}

	// Prefer the semantic index when one is configured and opens cleanly.
	var index *exemplar.Index
	if cfg.VecLitePath != "" {
		index, err = exemplar.Open(exemplar.Config{Path: cfg.VecLitePath})
		if err != nil {
			slog.Warn("exemplar index unavailable, using lexical sampling", "error", err)
			index = nil
		} else if index.Count() > 0 {
			sampler = index
			slog.Info("using exemplar index", "poems", index.Count())
		}
	}

	gen := generator.New(generator.Config{
		Sampler: sampler,
		Builder: prompt.New(prompt.Config{
			MaxPromptChars: cfg.MaxPromptChars,
			MaxNewTokens:   cfg.MaxNewTokens,
			Temperature:    cfg.Temperature,
		}),
		Client: textgen.New(textgen.Config{
			BaseURL:       cfg.HFBaseURL,
			Token:         cfg.HFToken,
			Model:         cfg.HFModel,
			FallbackModel: cfg.HFFallbackModel,
			Timeout:       cfg.GenerateTimeout,
		}),
		History:       store,
		ExemplarCount: cfg.ExemplarCount,
		Timeout:       cfg.GenerateTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff,
	})

	return &App{
		Config:    cfg,
		Store:     store,
		Corpus:    corpusStore,
		Index:     index,
		Generator: gen,
	}, nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.Index != nil {
		a.Index.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
