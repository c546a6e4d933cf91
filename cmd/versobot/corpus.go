package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versolabs/versobot/internal/config"
	"github.com/versolabs/versobot/internal/corpus"
)

var corpusTheme string

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspecciona el corpus de poemas",
	Long: `Carga el corpus, muestra estadísticas y, con --tema, los ejemplos
que se elegirían para ese tema.`,
	RunE: runCorpus,
}

func init() {
	corpusCmd.Flags().StringVar(&corpusTheme, "tema", "", "muestra los ejemplos elegidos para un tema")
	rootCmd.AddCommand(corpusCmd)
}

func runCorpus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForCorpus(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	fmt.Printf("Corpus: %s\n", cfg.CorpusPath)
	fmt.Printf("Poemas válidos: %d\n", store.Len())

	if corpusTheme == "" {
		return nil
	}

	fmt.Printf("\nEjemplos para %q:\n", corpusTheme)
	for i, p := range store.Sample(ctx, corpusTheme, cfg.ExemplarCount) {
		title := p.Title
		if title == "" {
			title = "(sin título)"
		}
		fmt.Printf("\n%d. %s (%d versos)\n%s\n", i+1, title, p.LineCount(), p.Text)
	}

	return nil
}
