package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/versolabs/versobot/internal/config"
	"github.com/versolabs/versobot/internal/corpus"
	"github.com/versolabs/versobot/internal/exemplar"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Construye el índice semántico de ejemplos",
	Long: `Indexa el corpus de poemas en VecLite para que los ejemplos del
prompt se elijan por similitud semántica en vez de por léxico.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForIndex(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	slog.Info("corpus loaded", "path", cfg.CorpusPath, "poems", store.Len())

	idx, err := exemplar.Open(exemplar.Config{Path: cfg.VecLitePath})
	if err != nil {
		return fmt.Errorf("open exemplar index: %w", err)
	}
	defer idx.Close()

	if err := idx.Build(ctx, store); err != nil {
		return fmt.Errorf("build exemplar index: %w", err)
	}

	fmt.Printf("Índice construido: %d poemas en %s\n", idx.Count(), cfg.VecLitePath)
	return nil
}
